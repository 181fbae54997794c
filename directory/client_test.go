package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	bindErr  error
	result   *ldap.SearchResult
	err      error
	down     bool
	startTLS *tls.Config
	timeout  time.Duration
	closed   bool
	requests []*ldap.SearchRequest
}

func (f *fakeConn) Bind(username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
	}
	return f.bindErr
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.down {
		return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
	}
	if req.BaseDN == "" {
		return &ldap.SearchResult{}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &ldap.SearchResult{}, nil
	}
	return f.result, nil
}

func (f *fakeConn) StartTLS(config *tls.Config) error {
	f.startTLS = config
	return nil
}

func (f *fakeConn) SetTimeout(timeout time.Duration) {
	f.timeout = timeout
}

func (f *fakeConn) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

type fakeLDAP struct {
	mu     sync.Mutex
	conns  map[string]*fakeConn
	dialed []string
}

func (f *fakeLDAP) DialURL(url string, opts ...ldap.DialOpt) (backendConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialed = append(f.dialed, url)
	if conn, ok := f.conns[url]; ok {
		return conn, nil
	}
	return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection refused"))
}

func (f *fakeLDAP) DialWithTLSConfig(tc *tls.Config) ldap.DialOpt {
	return ldap.DialWithTLSConfig(tc)
}

func (f *fakeLDAP) DialWithDialer(d *net.Dialer) ldap.DialOpt {
	return ldap.DialWithDialer(d)
}

func validConfig() Config {
	return Config{
		PrimaryServers:  []string{"ldap1:389"},
		BindDN:          "cn=admin,dc=example,dc=org",
		BindPassword:    "secret",
		BaseDN:          "ou=people,dc=example,dc=org",
		Scope:           ScopeWholeSubtree,
		UserNamingAttr:  "uid",
		UserSearchAttrs: []string{"uid"},
		UserAttributes:  []string{"mail"},
	}
}

func newFakeClient(t *testing.T, cfg Config, conns map[string]*fakeConn) (*Client, *fakeLDAP) {
	t.Helper()
	c, err := NewClient(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	fake := &fakeLDAP{conns: conns}
	c.ldap = fake
	return c, fake
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"no primary servers", func(c *Config) { c.PrimaryServers = nil }, "primary servers"},
		{"server without port", func(c *Config) { c.PrimaryServers = []string{"ldap1"} }, "server"},
		{"server with bad port", func(c *Config) { c.PrimaryServers = []string{"ldap1:ldap"} }, "server"},
		{"secondary server without host", func(c *Config) { c.SecondaryServers = []string{":389"} }, "server"},
		{"starttls without secure", func(c *Config) { c.StartTLS = true }, "connection mode"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"negative heartbeat", func(c *Config) { c.HeartbeatInterval = -time.Second }, "heartbeat interval"},
		{"empty bind dn", func(c *Config) { c.BindDN = "" }, "bind DN"},
		{"empty bind password", func(c *Config) { c.BindPassword = "" }, "bind password"},
		{"empty base dn", func(c *Config) { c.BaseDN = "" }, "base DN"},
		{"malformed base dn", func(c *Config) { c.BaseDN = "dc=example,dc" }, "base DN"},
		{"unknown scope", func(c *Config) { c.Scope = Scope(7) }, "scope"},
		{"empty naming attribute", func(c *Config) { c.UserNamingAttr = "" }, "user naming attribute"},
		{"no search attributes", func(c *Config) { c.UserSearchAttrs = nil }, "user search attributes"},
		{"blank search attribute", func(c *Config) { c.UserSearchAttrs = []string{" "} }, "user search attributes"},
		{"broken filter template", func(c *Config) { c.Filter = "(cn={{.Username}" }, "filter"},
		{"unknown template field", func(c *Config) { c.Filter = "(cn={{.Group}})" }, "filter"},
		{"filter without parentheses", func(c *Config) { c.Filter = "objectClass=person" }, "filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			c, err := NewClient(cfg, nil)
			require.Error(t, err)
			assert.Nil(t, c)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNewClient_ReportsEveryProblem(t *testing.T) {
	_, err := NewClient(Config{Scope: ScopeWholeSubtree}, nil)
	require.Error(t, err)
	for _, msg := range []string{"primary servers", "bind DN", "bind password", "base DN", "user naming attribute", "user search attributes"} {
		assert.Contains(t, err.Error(), msg)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(validConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter, c.config.Filter)
	assert.Nil(t, c.filter)
	assert.Equal(t, StateUnknown, c.State())
	assert.NotNil(t, c.logger)
}

func TestDialLDAP_ConnectionModes(t *testing.T) {
	tests := []struct {
		name     string
		secure   bool
		startTLS bool
		url      string
	}{
		{"plaintext", false, false, "ldap://ldap1:389"},
		{"ldaps", true, false, "ldaps://ldap1:389"},
		{"starttls", true, true, "ldap://ldap1:389"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Secure = tt.secure
			cfg.StartTLS = tt.startTLS
			cfg.Insecure = true
			cfg.Timeout = 5 * time.Second

			conn := &fakeConn{}
			c, fake := newFakeClient(t, cfg, map[string]*fakeConn{tt.url: conn})

			connection, err := c.Connect(context.Background())
			require.NoError(t, err)
			defer connection.Close()

			assert.Equal(t, []string{tt.url}, fake.dialed)
			assert.Equal(t, 5*time.Second, conn.timeout)
			if tt.startTLS {
				require.NotNil(t, conn.startTLS)
				assert.Equal(t, "ldap1", conn.startTLS.ServerName)
				assert.True(t, conn.startTLS.InsecureSkipVerify)
			} else {
				assert.Nil(t, conn.startTLS)
			}
		})
	}
}

func TestConnect_FailsOverToSecondary(t *testing.T) {
	cfg := validConfig()
	cfg.PrimaryServers = []string{"ldap1:389", "ldap2:389"}
	cfg.SecondaryServers = []string{"ldap3:389"}

	c, fake := newFakeClient(t, cfg, map[string]*fakeConn{"ldap://ldap3:389": {}})

	conn, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "ldap3:389", conn.Server())
	assert.Equal(t, []string{"ldap://ldap1:389", "ldap://ldap2:389", "ldap://ldap3:389"}, fake.dialed)
}

func TestConnect_NoServerAvailable(t *testing.T) {
	cfg := validConfig()
	cfg.SecondaryServers = []string{"ldap2:389"}
	c, fake := newFakeClient(t, cfg, nil)

	conn, err := c.Connect(context.Background())
	assert.Nil(t, conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoServerAvailable))
	assert.Contains(t, err.Error(), "ldap://ldap2:389")
	assert.Len(t, fake.dialed, 2)
}

func TestConnect_Canceled(t *testing.T) {
	c, fake := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": {}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, fake.dialed)
}

func TestSearchForUser(t *testing.T) {
	aliceDN := "uid=alice,ou=people,dc=example,dc=org"
	alice := ldap.NewEntry(aliceDN, map[string][]string{
		"uid":  {"alice"},
		"Mail": {"alice@example.com", "a.smith@example.com"},
	})

	t.Run("user found", func(t *testing.T) {
		conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{alice}}}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "alice"))
		assert.Equal(t, StateUserFound, c.State())
		assert.Equal(t, "alice", c.UserID())
		assert.Empty(t, c.UserDN())
		assert.Equal(t, map[string][]string{"mail": {"alice@example.com", "a.smith@example.com"}}, c.UserAttributeValues())
		assert.True(t, conn.closed)

		require.Len(t, conn.requests, 1)
		req := conn.requests[0]
		assert.Equal(t, "ou=people,dc=example,dc=org", req.BaseDN)
		assert.Equal(t, ldap.ScopeWholeSubtree, req.Scope)
		assert.Equal(t, "(uid=alice)", req.Filter)
		assert.Equal(t, []string{"uid", "mail"}, req.Attributes)
	})

	t.Run("user dn and rdn fallback", func(t *testing.T) {
		entry := ldap.NewEntry(aliceDN, map[string][]string{"mail": {"alice@example.com"}})
		conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{entry}}}
		cfg := validConfig()
		cfg.ReturnUserDN = true
		c, _ := newFakeClient(t, cfg, map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "alice"))
		assert.Equal(t, aliceDN, c.UserDN())
		assert.Equal(t, "alice", c.UserID())
	})

	t.Run("no entries", func(t *testing.T) {
		conn := &fakeConn{}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "carol"))
		assert.Equal(t, StateUserNotFound, c.State())
		assert.Nil(t, c.UserAttributeValues())
	})

	t.Run("no such object", func(t *testing.T) {
		conn := &fakeConn{err: ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "carol"))
		assert.Equal(t, StateUserNotFound, c.State())
	})

	t.Run("multiple entries", func(t *testing.T) {
		other := ldap.NewEntry("uid=alice,ou=contractors,dc=example,dc=org", nil)
		conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{alice, other}}}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		err := c.SearchForUser(context.Background(), "alice")
		assert.True(t, errors.Is(err, ErrMultipleEntries))
		assert.Equal(t, StateUnknown, c.State())
	})

	t.Run("search failure", func(t *testing.T) {
		conn := &fakeConn{err: ldap.NewError(ldap.LDAPResultUnwillingToPerform, errors.New("unwilling"))}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.Error(t, c.SearchForUser(context.Background(), "alice"))
		assert.Equal(t, StateUnknown, c.State())
	})

	t.Run("bind rejected", func(t *testing.T) {
		conn := &fakeConn{bindErr: ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		err := c.SearchForUser(context.Background(), "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LDAP bind failed")
		assert.Empty(t, conn.requests)
	})

	t.Run("connection dropped", func(t *testing.T) {
		conn := &fakeConn{down: true}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "alice"))
		assert.Equal(t, StateServerDown, c.State())
	})

	t.Run("no server", func(t *testing.T) {
		c, _ := newFakeClient(t, validConfig(), nil)

		require.NoError(t, c.SearchForUser(context.Background(), "alice"))
		assert.Equal(t, StateServerDown, c.State())
	})

	t.Run("missing username", func(t *testing.T) {
		c, fake := newFakeClient(t, validConfig(), nil)

		assert.Equal(t, ErrMissingUsername, c.SearchForUser(context.Background(), ""))
		assert.Empty(t, fake.dialed)
	})

	t.Run("state resets between searches", func(t *testing.T) {
		conn := &fakeConn{result: &ldap.SearchResult{Entries: []*ldap.Entry{alice}}}
		c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

		require.NoError(t, c.SearchForUser(context.Background(), "alice"))
		require.Equal(t, StateUserFound, c.State())

		conn.result = nil
		require.NoError(t, c.SearchForUser(context.Background(), "carol"))
		assert.Equal(t, StateUserNotFound, c.State())
		assert.Empty(t, c.UserID())
		assert.Nil(t, c.UserAttributeValues())
	})
}

func TestPing(t *testing.T) {
	conn := &fakeConn{}
	c, _ := newFakeClient(t, validConfig(), map[string]*fakeConn{"ldap://ldap1:389": conn})

	connection, err := c.Connect(context.Background())
	require.NoError(t, err)
	defer connection.Close()

	require.NoError(t, connection.Ping(context.Background()))
	require.Len(t, conn.requests, 1)
	assert.Equal(t, "", conn.requests[0].BaseDN)
	assert.Equal(t, ldap.ScopeBaseObject, conn.requests[0].Scope)

	conn.setDown(true)
	require.Error(t, connection.Ping(context.Background()))
	assert.True(t, connection.Stale())
	assert.Equal(t, ErrConnectionStale, connection.Ping(context.Background()))
}

func TestHeartbeat_MarksConnectionStale(t *testing.T) {
	cfg := validConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	conn := &fakeConn{}
	c, _ := newFakeClient(t, cfg, map[string]*fakeConn{"ldap://ldap1:389": conn})

	connection, err := c.Connect(context.Background())
	require.NoError(t, err)

	conn.setDown(true)
	require.Eventually(t, connection.Stale, time.Second, 5*time.Millisecond)
	assert.Equal(t, ErrConnectionStale, connection.searchForUser("alice"))

	connection.Close()
	assert.True(t, conn.closed)
}

func TestHeartbeat_StopsOnClose(t *testing.T) {
	cfg := validConfig()
	cfg.HeartbeatInterval = 5 * time.Millisecond
	conn := &fakeConn{}
	c, _ := newFakeClient(t, cfg, map[string]*fakeConn{"ldap://ldap1:389": conn})

	connection, err := c.Connect(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.requests) >= 2
	}, time.Second, 5*time.Millisecond)

	connection.Close()

	select {
	case <-connection.done:
	default:
		t.Fatal("heartbeat still running after Close")
	}
	assert.False(t, connection.Stale())
}
