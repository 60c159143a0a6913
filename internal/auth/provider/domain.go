package provider

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateDomain checks that email belongs to one of allowedDomains.
// An empty allow list permits every domain.
func ValidateDomain(email string, allowedDomains []string) error {
	if len(allowedDomains) == 0 {
		return nil
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return fmt.Errorf("email %q has no domain", email)
	}
	domain := strings.ToLower(email[at+1:])

	if !slices.ContainsFunc(allowedDomains, func(d string) bool {
		return strings.EqualFold(strings.TrimSpace(d), domain)
	}) {
		return fmt.Errorf("domain %q is not allowed", domain)
	}
	return nil
}
