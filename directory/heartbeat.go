package directory

import (
	"context"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
)

// Ping reads the root DSE. Any LDAP response proves the server is alive,
// only a network failure marks the connection stale.
func (conn *Connection) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn.mutex.Lock()
	defer conn.mutex.Unlock()
	if conn.stale {
		return ErrConnectionStale
	}

	_, err := conn.conn.Search(ldap.NewSearchRequest(
		"",
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		0, 0, false,
		DefaultFilter,
		[]string{"1.1"},
		nil,
	))
	if err != nil && ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		conn.stale = true
		return errors.Wrapf(err, "ldap server %s did not answer", conn.server)
	}
	return nil
}

// Stale reports whether a ping on this connection has failed.
func (conn *Connection) Stale() bool {
	conn.mutex.Lock()
	defer conn.mutex.Unlock()
	return conn.stale
}

func (conn *Connection) heartbeat(ctx context.Context, interval time.Duration) {
	defer close(conn.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				conn.client.logger.Warn("ldap heartbeat failed", "server", conn.server, "error", err)
				return
			}
			conn.client.logger.Trace("ldap heartbeat", "server", conn.server)
		}
	}
}
