// Package security masks secrets before they reach logs or terminal output.
package security

import (
	"net/url"
	"regexp"
	"strings"
)

// sensitiveFields contains config and log field names whose values are masked.
var sensitiveFields = map[string]bool{
	"api_key":      true,
	"apikey":       true,
	"secret":       true,
	"password":     true,
	"token":        true,
	"access_token": true,
	"postgres_dsn": true,
	"dsn":          true,
}

// sensitivePatterns match key=value secrets and URL credentials in free text.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret|password|access[_-]?token)([=:]\s*)["']?([^\s"'&]+)["']?`),
	regexp.MustCompile(`(?i)(postgres(?:ql)?://[^:/@\s]+:)([^@\s]+)(@)`),
}

// MaskCredential keeps at most the first and last four characters of value.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// IsSensitiveField reports whether values of field must not be shown.
func IsSensitiveField(field string) bool {
	return sensitiveFields[strings.ToLower(field)]
}

// RedactDSN hides the password of a connection URL. Key/value DSNs have
// their password= entry masked instead.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
			return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
		}
		return dsn
	}
	return MaskSecrets(dsn)
}

// MaskSecrets masks every secret found in s.
func MaskSecrets(s string) string {
	s = sensitivePatterns[0].ReplaceAllStringFunc(s, func(match string) string {
		m := sensitivePatterns[0].FindStringSubmatch(match)
		return m[1] + m[2] + MaskCredential(m[3])
	})
	return sensitivePatterns[1].ReplaceAllString(s, "${1}****${3}")
}
