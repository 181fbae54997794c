package directory

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingUsername   = errors.New("username is missing")
	ErrNoServerAvailable = errors.New("no ldap server available")
	ErrMultipleEntries   = errors.New("multiple entries matched the user search")
	ErrConnectionStale   = errors.New("ldap connection failed its heartbeat")
)

// ConfigError reports a directory parameter that cannot be used as given.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func configError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
