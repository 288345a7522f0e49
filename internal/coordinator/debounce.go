package coordinator

import (
	"sync"
	"time"
)

// Operation kinds for debounce keying.
const (
	opVolumeSync     = "volume"
	opZoneVolumeSync = "zone_volume"
	opMuteSync       = "mute"
	opZoneMuteSync   = "zone_mute"
)

// debouncer collapses rapid bursts of synchronization calls per
// (operation kind, target id) key.
//
// Per-key atomicity comes from sync.Map's LoadOrStore and
// CompareAndSwap, so concurrent callers for the same key race on a
// single CAS while callers for different keys proceed fully in
// parallel. Entries are never deleted; key cardinality is bounded by
// clients/zones times operation kinds.
type debouncer struct {
	window  time.Duration
	entries sync.Map // "kind|target" -> int64 unix nanos of last accepted call
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// accept reports whether a call for the key should proceed. Exactly
// one caller of a concurrent burst wins the CAS and proceeds; the rest
// are rejected as debounced no-ops.
func (d *debouncer) accept(kind, targetID string) bool {
	if d.window <= 0 {
		return true
	}

	key := kind + "|" + targetID
	now := time.Now().UnixNano()

	for {
		prev, loaded := d.entries.Load(key)
		if !loaded {
			if _, raced := d.entries.LoadOrStore(key, now); raced {
				continue // another caller created the entry first
			}
			return true
		}

		if now-prev.(int64) < int64(d.window) {
			return false
		}

		if d.entries.CompareAndSwap(key, prev, now) {
			return true
		}
		// Lost the CAS to a concurrent caller; re-evaluate against the
		// fresh timestamp.
	}
}
