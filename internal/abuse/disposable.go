package abuse

import "strings"

// disposableDomains is a static denylist of throwaway-email providers. The
// check runs on every signup, even when the other abuse gates are relaxed.
var disposableDomains = map[string]struct{}{
	"mailinator.com":     {},
	"guerrillamail.com":  {},
	"guerrillamail.net":  {},
	"10minutemail.com":   {},
	"tempmail.com":       {},
	"temp-mail.org":      {},
	"throwawaymail.com":  {},
	"yopmail.com":        {},
	"getnada.com":        {},
	"maildrop.cc":        {},
	"sharklasers.com":    {},
	"trashmail.com":      {},
	"fakeinbox.com":      {},
	"mailnesia.com":      {},
	"dispostable.com":    {},
	"mintemail.com":      {},
	"mohmal.com":         {},
	"spamgourmet.com":    {},
	"mytemp.email":       {},
	"burnermail.io":      {},
}

// EmailDomain extracts the lowercased domain part of an email address.
// Returns "" for addresses with no @.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// IsDisposableEmail reports whether the address uses a known throwaway domain.
// Malformed addresses (no domain) are treated as disposable.
func IsDisposableEmail(email string) bool {
	domain := EmailDomain(email)
	if domain == "" {
		return true
	}
	_, banned := disposableDomains[domain]
	return banned
}
