package domain

import (
	"regexp"
	"strings"
)

// maxAddressLen is the RFC 5321 ceiling for a complete address.
const maxAddressLen = 254

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidAddress reports whether the string is an acceptable email address.
func ValidAddress(email string) bool {
	if len(email) > maxAddressLen {
		return false
	}
	return addressPattern.MatchString(email)
}

// AddressDomain returns the domain part of an address, or "" if there is none.
func AddressDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// NormalizeAddresses trims every entry, drops empties, and removes duplicates
// case-insensitively while keeping the first occurrence's spelling and order.
func NormalizeAddresses(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		trimmed := strings.TrimSpace(email)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
