package logger

import "strings"

// sensitive query parameter names that force full redaction of the query string
var sensitiveParams = []string{
	"password", "token", "secret", "code", "mfa", "email", "auth",
}

// SanitizeQueryString reports whether the raw query string contains a
// sensitive parameter and must be redacted from request logs.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

// SanitizedEmail masks an email address for logging (e.g. "u***@***.com")
func SanitizedEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	user := email[:at]
	domain := email[at+1:]

	masked := string(user[0]) + strings.Repeat("*", len(user)-1)

	if dot := strings.LastIndexByte(domain, '.'); dot > 0 {
		domain = strings.Repeat("*", dot) + domain[dot:]
	}

	return masked + "@" + domain
}
