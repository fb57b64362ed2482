package source

import (
	"net"
	"net/url"
	"strings"

	"github.com/ppiankov/truthcore/internal/model"
)

// Classifier resolves a source URL or domain to a credibility label
type Classifier struct {
	domainMap  map[string]model.SourceLabel
	reputable  map[string]bool
	unreliable map[string]bool
}

// NewClassifier creates a classifier from the sources config
func NewClassifier(config *model.SourcesConfig) *Classifier {
	if config == nil {
		config = &model.DefaultConfig().Sources
	}

	c := &Classifier{
		domainMap:  make(map[string]model.SourceLabel),
		reputable:  make(map[string]bool),
		unreliable: make(map[string]bool),
	}

	for host, label := range config.DomainMap {
		c.domainMap[normalizeHost(host)] = model.ParseSourceLabel(label)
	}
	for _, domain := range config.Reputable {
		c.reputable[normalizeHost(domain)] = true
	}
	for _, domain := range config.Unreliable {
		c.unreliable[normalizeHost(domain)] = true
	}

	return c
}

// Classify maps a URL (or bare domain) to a label. Unknown hosts are neutral.
func (c *Classifier) Classify(rawURL string) model.SourceLabel {
	host := hostOf(rawURL)
	if host == "" {
		return model.SourceNeutral
	}

	// Explicit mappings win
	if label, ok := c.domainMap[host]; ok {
		return label
	}

	// Unreliable lists are checked first so a listed subdomain is never upgraded
	if matchesDomain(host, c.unreliable) {
		return model.SourceUnreliable
	}
	if matchesDomain(host, c.reputable) {
		return model.SourceReputable
	}

	// Government and academic TLDs
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.SourceReputable
	}

	return model.SourceNeutral
}

// matchesDomain reports whether host equals or is a subdomain of any listed domain
func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// hostOf extracts a lower-case host without port from a URL or bare domain
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(parsed.Host)
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
