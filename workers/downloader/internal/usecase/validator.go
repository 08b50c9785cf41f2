// Package usecase holds request validation for the downloader.
package usecase

import (
	"net/url"
	"strings"

	"vidcatalog/workers/downloader/internal/domain"
)

// URLValidator accepts URLs whose host is on a fixed allow-list
type URLValidator struct {
	hosts map[string]struct{}
}

// NewURLValidator creates a validator for the given hosts. Host matching
// is case-insensitive and exact: subdomains must be listed explicitly.
func NewURLValidator(hosts []string) *URLValidator {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}

	return &URLValidator{hosts: set}
}

// Validate returns domain.ErrInvalidURL unless raw is an http(s) URL on an
// allowed host
func (v *URLValidator) Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.NewDomainError(domain.CodeInvalidURL, domain.ErrInvalidURL.Message, err, false)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.ErrInvalidURL
	}

	if _, ok := v.hosts[strings.ToLower(u.Hostname())]; !ok {
		return domain.ErrInvalidURL
	}

	return nil
}
