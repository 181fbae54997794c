package directory

// State is the terminal status of a user search.
type State int

const (
	StateUnknown State = iota
	StateUserFound
	StateUserNotFound
	StateServerDown
)

func (s State) String() string {
	switch s {
	case StateUserFound:
		return "USER_FOUND"
	case StateUserNotFound:
		return "USER_NOT_FOUND"
	case StateServerDown:
		return "SERVER_DOWN"
	default:
		return "UNKNOWN"
	}
}
