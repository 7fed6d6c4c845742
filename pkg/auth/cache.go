package auth

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glowdesk/glowdesk/pkg/authz"
)

// PrincipalCache is a TTL'd LRU of resolved principals keyed by user ID.
// It bounds the grant query rate on hot request paths; the short TTL keeps
// grant edits visible within seconds.
type PrincipalCache struct {
	cache *lru.Cache[string, cachedPrincipal]
	ttl   time.Duration
	now   func() time.Time
}

type cachedPrincipal struct {
	principal *authz.Principal
	storedAt  time.Time
}

// NewPrincipalCache creates a cache holding up to size principals for ttl.
func NewPrincipalCache(size int, ttl time.Duration) (*PrincipalCache, error) {
	cache, err := lru.New[string, cachedPrincipal](size)
	if err != nil {
		return nil, err
	}
	return &PrincipalCache{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Get returns the cached principal for the user, or nil on miss or expiry.
func (c *PrincipalCache) Get(userID string) *authz.Principal {
	entry, ok := c.cache.Get(userID)
	if !ok {
		return nil
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.cache.Remove(userID)
		return nil
	}
	return entry.principal
}

// Put stores the principal for the user.
func (c *PrincipalCache) Put(userID string, p *authz.Principal) {
	c.cache.Add(userID, cachedPrincipal{principal: p, storedAt: c.now()})
}

// Invalidate drops the cached principal for the user, typically after a
// grant or role change.
func (c *PrincipalCache) Invalidate(userID string) {
	c.cache.Remove(userID)
}

// Purge drops everything.
func (c *PrincipalCache) Purge() {
	c.cache.Purge()
}
