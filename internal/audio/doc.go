// Package audio holds the coordinator's domain entities: audio clients
// (Snapcast endpoints) and zones (rooms grouping clients onto a stream),
// together with their persistence layer.
//
// The coordinator reads client and zone snapshots to resolve fan-out
// targets (KNX group addresses, zone membership); it never writes state
// back through these repositories during synchronization. Protocol state
// remains authoritative on the protocol that owns it.
package audio
