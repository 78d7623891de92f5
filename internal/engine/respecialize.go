package engine

import (
	"sync"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/speculation"
)

// DefaultRespecializeLimit is how many times a guard site may respecialize
// before it stops speculating on a flag.
const DefaultRespecializeLimit = 8

// GuardOutcome reports how a guard site proceeded.
type GuardOutcome int

const (
	// GuardSpeculative means the assumed flag still holds.
	GuardSpeculative GuardOutcome = iota + 1
	// GuardRespecialized means the assumed flag was invalidated and the
	// site re-specialized against the flag's current generation.
	GuardRespecialized
	// GuardGeneric means the site no longer speculates on the flag.
	GuardGeneric
)

// String returns the outcome name.
func (o GuardOutcome) String() string {
	switch o {
	case GuardSpeculative:
		return "speculative"
	case GuardRespecialized:
		return "respecialized"
	case GuardGeneric:
		return "generic"
	}
	return "unknown"
}

// siteKey identifies one guard site on one flag. Sites compare by
// Location pointer identity.
type siteKey struct {
	site *boundary.Location
	flag string
}

type siteState struct {
	assumed *speculation.Flag
	count   int
	generic bool
}

// RespecializationTracker remembers which flag generation each guard site
// specialized against and how often it had to start over.
//
// Without a limit, a flag that is invalidated on every iteration would
// make its guard sites respecialize forever. A site that exceeds the limit
// goes generic and stays generic.
//
// Thread-safe: can be called concurrently.
type RespecializationTracker struct {
	mu    sync.Mutex
	limit int
	sites map[siteKey]*siteState
}

// NewRespecializationTracker creates a tracker with the given limit.
func NewRespecializationTracker(limit int) *RespecializationTracker {
	return &RespecializationTracker{
		limit: limit,
		sites: make(map[siteKey]*siteState),
	}
}

// Guard checks the site's assumption about c and updates the site.
//
// The first visit specializes against c's current flag. Later visits
// succeed while that flag holds. Once it has been invalidated the site
// respecializes against the current generation, counting toward the limit.
// The returned count is the site's respecialization count after the call.
func (r *RespecializationTracker) Guard(site *boundary.Location, c *speculation.Cyclic) (GuardOutcome, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := siteKey{site: site, flag: c.Name()}
	st := r.sites[key]
	if st == nil {
		st = &siteState{assumed: c.Flag()}
		r.sites[key] = st
	}

	if st.generic {
		return GuardGeneric, st.count, nil
	}

	err := st.assumed.Check()
	if err == nil {
		return GuardSpeculative, st.count, nil
	}
	if !speculation.IsInvalidSpeculation(err) {
		return 0, st.count, err
	}

	st.count++
	if st.count > r.limit {
		st.generic = true
		st.assumed = nil
		return GuardGeneric, st.count, nil
	}
	st.assumed = c.Flag()
	return GuardRespecialized, st.count, nil
}

// Count returns the total respecializations recorded for a flag across
// all sites.
func (r *RespecializationTracker) Count(flag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for key, st := range r.sites {
		if key.flag == flag {
			total += st.count
		}
	}
	return total
}

// Generic reports whether the site has stopped speculating on flag.
func (r *RespecializationTracker) Generic(site *boundary.Location, flag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.sites[siteKey{site: site, flag: flag}]
	return st != nil && st.generic
}

// Limit returns the respecialization limit.
func (r *RespecializationTracker) Limit() int {
	return r.limit
}
