package domain

// DeliveryClass selects the reliability mode of a single send.
type DeliveryClass int

const (
	Reliable DeliveryClass = iota
	Unreliable
)

func (c DeliveryClass) String() string {
	if c == Unreliable {
		return "unreliable"
	}
	return "reliable"
}

// Target addresses an outbound message. A zero Peer means every other
// member of the current lobby.
type Target struct {
	Peer PeerID
}

func AllOthers() Target            { return Target{} }
func SinglePeer(p PeerID) Target   { return Target{Peer: p} }
func (t Target) IsBroadcast() bool { return t.Peer == "" }

// Outbound pairs an application payload with its addressing.
type Outbound struct {
	Kind   uint16
	Body   []byte
	Target Target
	Class  DeliveryClass
}
