package ldapquery

// UsernameKey is the shared state key holding the name of the user to look up.
const UsernameKey = "username"

// SharedState is the key/value bag a tree passes between nodes.
type SharedState map[string]interface{}

// Copy returns a deep copy of nested maps and slices. Other values are
// copied by assignment.
func (s SharedState) Copy() SharedState {
	if s == nil {
		return SharedState{}
	}
	out := make(SharedState, len(s))
	for k, v := range s {
		out[k] = copyValue(v)
	}
	return out
}

// String returns the value stored under key when it is a string.
func (s SharedState) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

func copyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case SharedState:
		return v.Copy()
	case map[string]interface{}:
		return map[string]interface{}(SharedState(v).Copy())
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}
