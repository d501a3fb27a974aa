package identity

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// ErrUnknownUser is returned by Resolver.Lookup when the user database has
// no entry for the username.
var ErrUnknownUser = errors.New("unknown user")

// Identity is a numeric OS identity.
type Identity struct {
	UID int
	GID int
}

type cachedIdentity struct {
	id      Identity
	expires time.Time
}

// Resolver maps usernames to numeric identities through the OS user
// database, caching successful lookups for ttl.
type Resolver struct {
	ttl   time.Duration
	cache *xsync.Map[string, cachedIdentity]
	now   func() time.Time
	// lookup is user.Lookup outside of tests
	lookup func(username string) (*user.User, error)
}

// NewResolver returns a Resolver caching lookups for ttl. A zero ttl
// disables the cache.
func NewResolver(ttl time.Duration) *Resolver {
	return &Resolver{
		ttl:    ttl,
		cache:  xsync.NewMap[string, cachedIdentity](),
		now:    time.Now,
		lookup: user.Lookup,
	}
}

// Lookup resolves username. Unknown users yield an error wrapping
// ErrUnknownUser; every other failure is returned as is.
func (r *Resolver) Lookup(username string) (Identity, error) {
	if r.ttl > 0 {
		if c, ok := r.cache.Load(username); ok && r.now().Before(c.expires) {
			return c.id, nil
		}
	}

	u, err := r.lookup(username)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return Identity{}, fmt.Errorf("lookup %s: %w", username, ErrUnknownUser)
		}
		return Identity{}, fmt.Errorf("lookup %s: %w", username, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup %s: uid %q: %w", username, u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup %s: gid %q: %w", username, u.Gid, err)
	}

	id := Identity{UID: uid, GID: gid}
	if r.ttl > 0 {
		r.cache.Store(username, cachedIdentity{id: id, expires: r.now().Add(r.ttl)})
	}
	return id, nil
}
