package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactSecret masks a credential, keeping only a data-center suffix if present.
// "0123abcd-us19" → "****-us19", "hunter2" → "****"
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if i := strings.LastIndex(secret, "-"); i >= 0 && i < len(secret)-1 {
		return "****" + secret[i:]
	}
	return "****"
}
