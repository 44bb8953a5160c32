package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// Allowlist restricts navigation to a fixed set of domain suffixes. A host
// matches when it equals an entry or is a subdomain of one; lookalike hosts
// such as notkvk.nl never match kvk.nl.
type Allowlist struct {
	domains []string
}

func NewAllowlist(domains []string) *Allowlist {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(domain, ".")))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}
	return &Allowlist{domains: normalized}
}

// Check validates a navigation target against the allow-list
func (a *Allowlist) Check(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: unparseable url %q", ErrDomainNotAllowed, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrDomainNotAllowed, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrDomainNotAllowed, rawURL)
	}

	for _, domain := range a.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrDomainNotAllowed, host)
}
