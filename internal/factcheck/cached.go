package factcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/truthcore/internal/cache"
)

// Searcher is anything that can run a claim search
type Searcher interface {
	Search(ctx context.Context, query string) ([]Claim, error)
}

// CachedSearcher memoises successful searches. Failures are never cached so a
// transient outage does not pin the neutral fallback.
type CachedSearcher struct {
	next     Searcher
	cache    cache.Cache
	ttl      time.Duration
	keyParts []string
	logger   *slog.Logger
}

// NewCachedSearcher wraps next with c. keyParts (e.g. the language code) are
// folded into every cache key.
func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration, logger *slog.Logger, keyParts ...string) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{
		next:     next,
		cache:    c,
		ttl:      ttl,
		keyParts: keyParts,
		logger:   logger,
	}
}

// Search returns cached claims for query or delegates to the wrapped searcher
func (s *CachedSearcher) Search(ctx context.Context, query string) ([]Claim, error) {
	key := cache.Key("factcheck", append(append([]string{}, s.keyParts...), normalizeQuery(query))...)

	if raw, ok := s.cache.Get(key); ok {
		var claims []Claim
		if err := json.Unmarshal(raw, &claims); err == nil {
			s.logger.Debug("fact-check cache hit", "query", query)
			return claims, nil
		}
		_ = s.cache.Delete(key)
	}

	claims, err := s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(claims); err == nil {
		if err := s.cache.Set(key, raw, s.ttl); err != nil {
			s.logger.Warn("fact-check cache write failed", "error", err)
		}
	}

	return claims, nil
}

// normalizeQuery folds case and whitespace so trivially different spellings share an entry
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
