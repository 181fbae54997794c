package ldapquery

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/xonoko/ldapquery/directory"
)

// ConnectionMode selects how the connection to the directory is secured.
type ConnectionMode int

const (
	// ConnectionModeLDAP sends everything, passwords included, in cleartext.
	ConnectionModeLDAP ConnectionMode = iota
	// ConnectionModeLDAPS connects over TLS from the start.
	ConnectionModeLDAPS
	// ConnectionModeStartTLS upgrades a plaintext connection with the StartTLS extended operation.
	ConnectionModeStartTLS
)

var connectionModeNames = []string{"LDAP", "LDAPS", "START_TLS"}

func (m ConnectionMode) IsValid() bool {
	return m >= ConnectionModeLDAP && m <= ConnectionModeStartTLS
}

func (m ConnectionMode) String() string {
	if !m.IsValid() {
		return "ConnectionMode(" + strconv.Itoa(int(m)) + ")"
	}
	return connectionModeNames[m]
}

func (m ConnectionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ConnectionMode) UnmarshalText(text []byte) error {
	i, err := parseEnum("connection mode", connectionModeNames, text)
	if err != nil {
		return err
	}
	*m = ConnectionMode(i)
	return nil
}

// SearchScope is the breadth of the user search below the base DN.
type SearchScope int

const (
	// SearchScopeSubtree searches the base DN and every level below it.
	SearchScopeSubtree SearchScope = iota
	// SearchScopeOneLevel searches only the level directly below the base DN.
	SearchScopeOneLevel
	// SearchScopeObject searches only the base DN.
	SearchScopeObject
)

var searchScopeNames = []string{"SUBTREE", "ONE_LEVEL", "OBJECT"}

func (s SearchScope) IsValid() bool {
	return s >= SearchScopeSubtree && s <= SearchScopeObject
}

func (s SearchScope) String() string {
	if !s.IsValid() {
		return "SearchScope(" + strconv.Itoa(int(s)) + ")"
	}
	return searchScopeNames[s]
}

func (s SearchScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SearchScope) UnmarshalText(text []byte) error {
	i, err := parseEnum("search scope", searchScopeNames, text)
	if err != nil {
		return err
	}
	*s = SearchScope(i)
	return nil
}

// Scope maps the setting onto the directory search scope.
func (s SearchScope) Scope() directory.Scope {
	switch s {
	case SearchScopeObject:
		return directory.ScopeBaseObject
	case SearchScopeOneLevel:
		return directory.ScopeSingleLevel
	default:
		return directory.ScopeWholeSubtree
	}
}

// HeartbeatTimeUnit is the unit of the heartbeat interval.
type HeartbeatTimeUnit int

const (
	HeartbeatSeconds HeartbeatTimeUnit = iota
	HeartbeatMinutes
	HeartbeatHours
)

var heartbeatTimeUnitNames = []string{"SECONDS", "MINUTES", "HOURS"}

func (u HeartbeatTimeUnit) IsValid() bool {
	return u >= HeartbeatSeconds && u <= HeartbeatHours
}

func (u HeartbeatTimeUnit) String() string {
	if !u.IsValid() {
		return "HeartbeatTimeUnit(" + strconv.Itoa(int(u)) + ")"
	}
	return heartbeatTimeUnitNames[u]
}

func (u HeartbeatTimeUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *HeartbeatTimeUnit) UnmarshalText(text []byte) error {
	i, err := parseEnum("heartbeat time unit", heartbeatTimeUnitNames, text)
	if err != nil {
		return err
	}
	*u = HeartbeatTimeUnit(i)
	return nil
}

// Duration returns n units as a time.Duration.
func (u HeartbeatTimeUnit) Duration(n int) time.Duration {
	switch u {
	case HeartbeatHours:
		return time.Duration(n) * time.Hour
	case HeartbeatMinutes:
		return time.Duration(n) * time.Minute
	default:
		return time.Duration(n) * time.Second
	}
}

func parseEnum(kind string, names []string, text []byte) (int, error) {
	value := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range names {
		if value == name {
			return i, nil
		}
	}
	return 0, errors.Errorf("unknown %s %q, expected one of %s", kind, string(text), strings.Join(names, ", "))
}
