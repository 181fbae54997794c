package directory

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

type LDAP interface {
	DialURL(url string, opts ...ldap.DialOpt) (backendConnection, error)
	DialWithTLSConfig(tc *tls.Config) ldap.DialOpt
	DialWithDialer(d *net.Dialer) ldap.DialOpt
}

type ldapImpl struct{}

func (l *ldapImpl) DialURL(url string, opts ...ldap.DialOpt) (backendConnection, error) {
	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, err
	}
	return &ldapConn{Conn: conn}, nil
}

func (l *ldapImpl) DialWithTLSConfig(tc *tls.Config) ldap.DialOpt {
	return ldap.DialWithTLSConfig(tc)
}

func (l *ldapImpl) DialWithDialer(d *net.Dialer) ldap.DialOpt {
	return ldap.DialWithDialer(d)
}

type backendConnection interface {
	Bind(username, password string) error
	Close()
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	StartTLS(config *tls.Config) error
	SetTimeout(timeout time.Duration)
}

// ldapConn drops the result of Close, which newer go-ldap releases return.
type ldapConn struct {
	*ldap.Conn
}

func (c *ldapConn) Close() {
	c.Conn.Close()
}
