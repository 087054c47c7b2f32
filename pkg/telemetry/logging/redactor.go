package logging

import (
	"regexp"
	"strings"

	"mercator-hq/dialoglens/pkg/config"
)

// Redactor scrubs secrets and personal data from log values.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
	replace     func(string) string
}

// Built-in pattern names.
const (
	PatternGoogleAPIKey = "google_api_key"
	PatternAPIKey       = "api_key"
	PatternBearerToken  = "bearer_token"
	PatternEmail        = "email"
	PatternPhone        = "phone"
)

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom ones. Invalid custom patterns are skipped and returned by name.
func NewRedactor(custom []config.RedactPattern) (*Redactor, []string) {
	r := &Redactor{}
	r.addDefaultPatterns()

	var invalid []string
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			invalid = append(invalid, p.Name)
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r, invalid
}

// Order matters: keys and tokens are removed before the broader patterns run.
func (r *Redactor) addDefaultPatterns() {
	r.patterns = append(r.patterns,
		&redactPattern{
			name:        PatternGoogleAPIKey,
			regex:       regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
			replacement: "AIza***",
		},
		&redactPattern{
			name:        PatternAPIKey,
			regex:       regexp.MustCompile(`(?i)(api[-_]?key|x-goog-api-key)([=:]\s*)[^\s&"']+`),
			replacement: "$1$2***",
		},
		&redactPattern{
			name:        PatternBearerToken,
			regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
			replacement: "Bearer ***",
		},
		&redactPattern{
			name:    PatternEmail,
			regex:   regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			replace: RedactEmail,
		},
		&redactPattern{
			// International numbers need a leading +; bare digit runs
			// (timestamps, IDs) are left alone.
			name:    PatternPhone,
			regex:   regexp.MustCompile(`\+\d{1,3}[\s.\-]?\(?\d{2,4}\)?(?:[\s.\-]?\d{2,4}){2,4}`),
			replace: RedactPhone,
		},
	)
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}

	for _, p := range r.patterns {
		if p.replace != nil {
			value = p.regex.ReplaceAllStringFunc(value, p.replace)
		} else {
			value = p.regex.ReplaceAllString(value, p.replacement)
		}
	}
	return value
}

// isSensitiveKey reports whether an attribute key names a secret.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{
		"password", "passwd", "secret", "token",
		"api_key", "apikey", "authorization",
	} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// redactSecret hides a secret value, keeping a short prefix for identification.
func redactSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "***"
	}
	return v[:4] + "***"
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	if at == 0 {
		return "***" + email[at:]
	}
	return email[:1] + "***" + email[at:]
}

// RedactPhone keeps the last two digits.
func RedactPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < 2 {
		return "+***"
	}
	return "+***" + string(digits[len(digits)-2:])
}
