// Package coordinator implements the protocol fan-out engine at the
// heart of SoundBridge.
//
// A state change (volume, mute, playback, stream assignment,
// connectivity) that originates on any one protocol is propagated to
// every other enabled protocol, with the source excluded to prevent
// feedback loops. Rapid bursts for the same target are collapsed by a
// per-key debounce window; downstream legs run concurrently and their
// outcomes are aggregated, so one failing protocol degrades the result
// instead of aborting the others.
//
// The coordinator has a bounded lifecycle: synchronization entry points
// reject calls before Start and after Stop. It reads client and zone
// snapshots from the repositories but never writes state back; the
// authoritative update arrives when the owning protocol confirms the
// change and re-emits an event.
package coordinator
