package mailchimp

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var dataCenterPattern = regexp.MustCompile(`^[a-z]{2,}[0-9]+$`)

// APIKey is a parsed marketing API key. The segment after the last hyphen
// names the data center that serves the account ("us19").
type APIKey struct {
	secret     string
	DataCenter string
}

// ParseAPIKey validates the key format without touching the network.
func ParseAPIKey(raw string) (APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return APIKey{}, &FormatError{Field: "api_key", Err: errors.New("empty key")}
	}
	i := strings.LastIndex(raw, "-")
	if i <= 0 || i == len(raw)-1 {
		return APIKey{}, &FormatError{Field: "api_key", Err: errors.New("missing data center suffix, expected <key>-<dc> such as xxxxxxxx-us19")}
	}
	dc := raw[i+1:]
	if !dataCenterPattern.MatchString(dc) {
		return APIKey{}, &FormatError{Field: "api_key", Err: fmt.Errorf("invalid data center suffix %q", dc)}
	}
	return APIKey{secret: raw, DataCenter: dc}, nil
}

// BaseURL returns the regional API root for the key's data center.
func (k APIKey) BaseURL() string {
	return fmt.Sprintf("https://%s.api.mailchimp.com/3.0", k.DataCenter)
}

// String never prints the secret.
func (k APIKey) String() string {
	return "****-" + k.DataCenter
}
