// Package archive writes campaign bodies as markdown documents and finds
// them again by their canonical date_slug filename.
package archive

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// SlugMaxBytes bounds the subject part of a filename. Writing and
	// matching must agree on it.
	SlugMaxBytes = 200

	// Extension is appended to every archived document.
	Extension = ".md"

	// UnknownDate replaces the date prefix for campaigns with no send time.
	UnknownDate = "unknown"

	fallbackSlug = "No_Subject"
)

// Slug derives the filesystem-safe form of a subject line. Letters and
// digits from any script are kept, every other run of characters becomes a
// single underscore, and the result is cut to SlugMaxBytes on a rune
// boundary.
func Slug(subject string) string {
	subject = norm.NFC.String(subject)

	var sb strings.Builder
	sb.Grow(len(subject))
	pending := false
	for _, r := range subject {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}

	return truncateSlug(sb.String(), SlugMaxBytes)
}

func truncateSlug(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "_")
}

// DatePrefix formats the send date in the campaign's own offset.
func DatePrefix(sendDate time.Time) string {
	if sendDate.IsZero() {
		return UnknownDate
	}
	return sendDate.Format("2006-01-02")
}

// CanonicalFilename returns YYYY-MM-DD_<slug>.md for a campaign.
func CanonicalFilename(sendDate time.Time, subject string) string {
	slug := Slug(subject)
	if slug == "" {
		slug = fallbackSlug
	}
	return DatePrefix(sendDate) + "_" + slug + Extension
}

// splitFilename breaks an archived name into its date prefix and raw subject
// part. ok is false for names that are not archived documents.
func splitFilename(name string) (date, stem string, ok bool) {
	if !strings.HasSuffix(name, Extension) {
		return "", "", false
	}
	base := strings.TrimSuffix(name, Extension)
	i := strings.IndexByte(base, '_')
	if i <= 0 {
		return "", "", false
	}
	return base[:i], base[i+1:], true
}
