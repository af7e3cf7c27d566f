package eventstore

import (
	"github.com/puzpuzpuz/xsync/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

// Claims tracks which event ids are currently in use by consumers (models,
// UI views, anything holding a reference). The store never evicts, so claims
// don't keep events alive; they tell an embedding application which events a
// periodic prune could drop safely. Counts saturate at zero: removing a
// claim that was never taken is a no-op.
type Claims struct {
	refs *xsync.MapOf[applesauce.ID, int]
}

func newClaims() *Claims {
	return &Claims{refs: xsync.NewMapOf[applesauce.ID, int]()}
}

// Claim registers one more consumer of id.
func (c *Claims) Claim(id applesauce.ID) {
	c.refs.Compute(id, func(count int, _ bool) (int, bool) {
		return count + 1, false
	})
}

// RemoveClaim releases one consumer of id, dropping the entry when the last
// one goes away.
func (c *Claims) RemoveClaim(id applesauce.ID) {
	c.refs.Compute(id, func(count int, loaded bool) (int, bool) {
		if !loaded || count <= 1 {
			return 0, true
		}
		return count - 1, false
	})
}

// IsClaimed reports whether at least one consumer holds id.
func (c *Claims) IsClaimed(id applesauce.ID) bool {
	count, ok := c.refs.Load(id)
	return ok && count > 0
}

// Count returns the number of consumers holding id.
func (c *Claims) Count(id applesauce.ID) int {
	count, _ := c.refs.Load(id)
	return count
}

// Size returns how many distinct ids are claimed.
func (c *Claims) Size() int {
	return c.refs.Size()
}
