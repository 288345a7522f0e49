package coordinator

// Protocol identifies one of the coordinated control planes. It is
// used purely as the source-exclusion key during fan-out and as the
// key of the health map; it is never persisted.
type Protocol string

// The closed set of coordinated protocols.
const (
	ProtocolSnapcast Protocol = "Snapcast"
	ProtocolMQTT     Protocol = "MQTT"
	ProtocolKNX      Protocol = "KNX"
	ProtocolSubsonic Protocol = "Subsonic"
)

// String returns the protocol name.
func (p Protocol) String() string {
	return string(p)
}
