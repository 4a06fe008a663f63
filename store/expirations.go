package store

import (
	"sort"
	"time"
)

// expirationIndex is the ordered set of (deadline, id) -> key pairs
// described in the data model: ordered so the least element is the
// earliest expiration, with ties broken by id. No suitable ordered-map
// library surfaced across the example pack (the pack's container
// libraries are all oriented at caches or persistence, which this spec
// excludes), so this is a small sorted slice with binary-search
// insert/remove — adequate at the scale this server targets, and it
// keeps the min element a simple index-0 lookup.
type expirationIndex struct {
	keys []expKey
	vals map[expKey]string
}

func newExpirationIndex() *expirationIndex {
	return &expirationIndex{vals: make(map[expKey]string)}
}

func (e *expirationIndex) insert(k expKey, key string) {
	i := sort.Search(len(e.keys), func(i int) bool { return !e.keys[i].less(k) })
	e.keys = append(e.keys, expKey{})
	copy(e.keys[i+1:], e.keys[i:])
	e.keys[i] = k
	e.vals[k] = key
}

func (e *expirationIndex) remove(k expKey) {
	i := sort.Search(len(e.keys), func(i int) bool { return !e.keys[i].less(k) })
	if i < len(e.keys) && e.keys[i] == k {
		e.keys = append(e.keys[:i], e.keys[i+1:]...)
	}
	delete(e.vals, k)
}

// min returns the earliest (deadline, id) pair, or false if empty.
func (e *expirationIndex) min() (expKey, bool) {
	if len(e.keys) == 0 {
		return expKey{}, false
	}
	return e.keys[0], true
}

// popExpired removes every (deadline, id) pair whose deadline is at or
// before now and returns the keys those pairs mapped to.
func (e *expirationIndex) popExpired(now time.Time) []string {
	var expired []string
	for len(e.keys) > 0 && !e.keys[0].at.After(now) {
		k := e.keys[0]
		expired = append(expired, e.vals[k])
		e.keys = e.keys[1:]
		delete(e.vals, k)
	}
	return expired
}
