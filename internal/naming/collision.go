package naming

import "sync"

// Claims records which source produced each destination path during a run.
// Several sources can map to one destination (x.avi and x.mpg both become
// x.mp4); once one of them has produced it, the others are skipped. All
// methods are goroutine-safe.
type Claims struct {
	mu     sync.Mutex
	owners map[string]string // destination path -> source path that produced it
}

// NewClaims creates an empty claim table.
func NewClaims() *Claims {
	return &Claims{owners: make(map[string]string)}
}

// Claim records src as the producer of dest when dest is unclaimed (or
// already owned by src) and returns ("", true). Otherwise it returns the
// current owner and false.
func (c *Claims) Claim(src, dest string) (owner string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, exists := c.owners[dest]; exists && cur != src {
		return cur, false
	}
	c.owners[dest] = src
	return "", true
}

// Owner returns the source recorded for dest, or "" when none is.
func (c *Claims) Owner(dest string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owners[dest]
}

// Waves splits indexes of dests into rounds so that no two entries sharing a
// destination land in the same round. Round k holds the k-th occurrence of
// each destination, in input order; an empty destination always goes to the
// first round.
func Waves(dests []string) [][]int {
	var waves [][]int
	seen := make(map[string]int)
	for i, d := range dests {
		n := 0
		if d != "" {
			n = seen[d]
			seen[d]++
		}
		for len(waves) <= n {
			waves = append(waves, nil)
		}
		waves[n] = append(waves[n], i)
	}
	return waves
}
