package protocol

// State is the connection state a handshake switches to.
type State int32

const (
	StateHandshaking State = iota
	StateStatus
	StateLogin
)

func (state State) String() string {
	switch state {
	case StateHandshaking:
		return "Handshaking"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	default:
		return "Unknown"
	}
}
