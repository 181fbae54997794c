package directory

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

type Scope int

const (
	ScopeBaseObject   Scope = ldap.ScopeBaseObject
	ScopeSingleLevel  Scope = ldap.ScopeSingleLevel
	ScopeWholeSubtree Scope = ldap.ScopeWholeSubtree
)

// DefaultFilter is the object filter applied when no user search filter is configured.
const DefaultFilter = "(objectClass=*)"

// Client looks up a single user in a directory. A Client records the
// outcome of its last search and is not meant to be shared between
// concurrent lookups.
type Client struct {
	ldap   LDAP
	config Config
	logger hclog.Logger
	filter *template.Template

	state      State
	userDN     string
	userID     string
	attributes map[string][]string
}

type Connection struct {
	conn   backendConnection
	client *Client
	server string
	mutex  sync.Mutex
	stale  bool

	cancel context.CancelFunc
	done   chan struct{}
}

type Config struct {
	// PrimaryServers are tried in order before any of the SecondaryServers.
	// Entries are host:port pairs.
	PrimaryServers   []string
	SecondaryServers []string

	// Secure selects LDAPS, or StartTLS when StartTLS is also set.
	Secure   bool
	StartTLS bool
	Insecure bool
	Timeout  time.Duration

	// HeartbeatInterval of zero disables the connection heartbeat.
	HeartbeatInterval time.Duration

	// BindDN is the DN of the account used to perform the user search
	BindDN       string
	BindPassword string

	BaseDN string
	Scope  Scope
	// Filter is an object filter template, {{.Username}} expands to the
	// escaped username. It is AND-ed with the attribute match.
	Filter          string
	UserNamingAttr  string
	UserSearchAttrs []string
	ReturnUserDN    bool
	UserAttributes  []string
}

func NewClient(config Config, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if config.Filter == "" {
		config.Filter = DefaultFilter
	}

	c := &Client{
		config: config,
		ldap:   &ldapImpl{},
		logger: logger,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) validate() error {
	var errs error
	cfg := c.config

	if len(cfg.PrimaryServers) == 0 {
		errs = multierror.Append(errs, configError("primary servers", "at least one server is required"))
	}
	for _, server := range append(append([]string{}, cfg.PrimaryServers...), cfg.SecondaryServers...) {
		if err := checkServer(server); err != nil {
			errs = multierror.Append(errs, configError("server", "%q: %s", server, err))
		}
	}
	if cfg.StartTLS && !cfg.Secure {
		errs = multierror.Append(errs, configError("connection mode", "StartTLS requires a secure connection"))
	}
	if cfg.Timeout < 0 {
		errs = multierror.Append(errs, configError("timeout", "must not be negative"))
	}
	if cfg.HeartbeatInterval < 0 {
		errs = multierror.Append(errs, configError("heartbeat interval", "must not be negative"))
	}
	if cfg.BindDN == "" {
		errs = multierror.Append(errs, configError("bind DN", "cannot be empty"))
	}
	if cfg.BindPassword == "" {
		errs = multierror.Append(errs, configError("bind password", "cannot be empty"))
	}
	if cfg.BaseDN == "" {
		errs = multierror.Append(errs, configError("base DN", "cannot be empty"))
	} else if _, err := ldap.ParseDN(cfg.BaseDN); err != nil {
		errs = multierror.Append(errs, configError("base DN", "%q: %s", cfg.BaseDN, err))
	}
	switch cfg.Scope {
	case ScopeBaseObject, ScopeSingleLevel, ScopeWholeSubtree:
	default:
		errs = multierror.Append(errs, configError("scope", "unknown scope %d", cfg.Scope))
	}
	if cfg.UserNamingAttr == "" {
		errs = multierror.Append(errs, configError("user naming attribute", "cannot be empty"))
	}
	if len(cfg.UserSearchAttrs) == 0 {
		errs = multierror.Append(errs, configError("user search attributes", "at least one attribute is required"))
	}
	for _, attr := range cfg.UserSearchAttrs {
		if strings.TrimSpace(attr) == "" {
			errs = multierror.Append(errs, configError("user search attributes", "attribute names cannot be blank"))
		}
	}

	if cfg.Filter != DefaultFilter {
		t, err := template.New("userSearchFilter").Option("missingkey=error").Parse(cfg.Filter)
		if err != nil {
			errs = multierror.Append(errs, configError("filter", "%s", err))
		} else {
			c.filter = t
		}
	}
	if errs == nil && len(cfg.UserSearchAttrs) > 0 {
		// the username only affects escaped values, so any sample proves the filter shape
		filter, err := c.userFilter("sample")
		if err == nil {
			_, err = ldap.CompileFilter(filter)
		}
		if err != nil {
			errs = multierror.Append(errs, configError("filter", "%s", err))
		}
	}
	return errs
}

func checkServer(server string) error {
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		return err
	}
	if host == "" {
		return errors.New("missing host")
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return errors.Errorf("invalid port %q", port)
	}
	return nil
}

// State returns the outcome of the last SearchForUser call.
func (c *Client) State() State {
	return c.state
}

// UserAttributeValues returns the requested attributes found on the user
// entry, keyed by their configured names.
func (c *Client) UserAttributeValues() map[string][]string {
	return c.attributes
}

// UserID is the value of the naming attribute of the user found.
func (c *Client) UserID() string {
	return c.userID
}

// UserDN is only set when the client was configured with ReturnUserDN.
func (c *Client) UserDN() string {
	return c.userDN
}

// Connect dials the primary servers in order, then the secondary servers,
// and returns the first connection established.
func (c *Client) Connect(ctx context.Context) (*Connection, error) {
	var multiErr error
	servers := append(append([]string{}, c.config.PrimaryServers...), c.config.SecondaryServers...)
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "ldap connect aborted")
		}
		conn, err := c.dialLDAP(server)
		if err != nil {
			c.logger.Warn("ldap server unreachable", "server", server, "error", err)
			multiErr = multierror.Append(multiErr, err)
			continue
		}
		c.logger.Debug("connected to ldap server", "server", server)
		return c.newConnection(ctx, conn, server), nil
	}
	return nil, errors.Wrapf(ErrNoServerAvailable, "%v", multiErr)
}

// SearchForUser binds with the configured account and searches for the
// user. An unreachable directory is reported through State, not as an error.
func (c *Client) SearchForUser(ctx context.Context, username string) error {
	c.state = StateUnknown
	c.userDN = ""
	c.userID = ""
	c.attributes = nil

	if username == "" {
		return ErrMissingUsername
	}

	conn, err := c.Connect(ctx)
	if err != nil {
		if errors.Is(err, ErrNoServerAvailable) {
			c.state = StateServerDown
			return nil
		}
		return err
	}
	defer conn.Close()

	return conn.searchForUser(username)
}

func (c *Client) tlsConfig(host string) *tls.Config {
	// #nosec G402 -- trusting all certificates is an explicit configuration choice
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: c.config.Insecure,
	}
}

func (c *Client) dialLDAP(server string) (backendConnection, error) {
	host, _, err := net.SplitHostPort(server)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse ldap server: %s", server)
	}
	tlsConfig := c.tlsConfig(host)

	var opts []ldap.DialOpt
	if c.config.Timeout > 0 {
		opts = append(opts, c.ldap.DialWithDialer(&net.Dialer{Timeout: c.config.Timeout}))
	}
	scheme := "ldap"
	if c.config.Secure && !c.config.StartTLS {
		scheme = "ldaps"
		opts = append(opts, c.ldap.DialWithTLSConfig(tlsConfig))
	}

	ldapURL := scheme + "://" + server
	conn, err := c.ldap.DialURL(ldapURL, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot dial ldap url: %s", ldapURL)
	}

	if c.config.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "cannot start tls for ldap url: %s", ldapURL)
		}
	}

	if c.config.Timeout > 0 {
		conn.SetTimeout(c.config.Timeout)
	}

	return conn, nil
}

func (c *Client) newConnection(ctx context.Context, conn backendConnection, server string) *Connection {
	connection := &Connection{conn: conn, client: c, server: server}
	if interval := c.config.HeartbeatInterval; interval > 0 {
		hbCtx, cancel := context.WithCancel(ctx)
		connection.cancel = cancel
		connection.done = make(chan struct{})
		go connection.heartbeat(hbCtx, interval)
	}
	return connection
}

// Server is the host:port the connection was established with.
func (conn *Connection) Server() string {
	return conn.server
}

func (conn *Connection) Close() {
	if conn.cancel != nil {
		conn.cancel()
		<-conn.done
	}
	conn.mutex.Lock()
	defer conn.mutex.Unlock()
	conn.conn.Close()
}

func (conn *Connection) searchForUser(username string) error {
	conn.mutex.Lock()
	defer conn.mutex.Unlock()

	c := conn.client
	if conn.stale {
		return ErrConnectionStale
	}

	if err := conn.conn.Bind(c.config.BindDN, c.config.BindPassword); err != nil {
		if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
			c.logger.Warn("ldap server dropped the connection during bind", "server", conn.server, "error", err)
			c.state = StateServerDown
			return nil
		}
		return errors.Wrap(err, "LDAP bind failed")
	}

	filter, err := c.userFilter(username)
	if err != nil {
		return err
	}
	c.logger.Debug("searching for user", "base_dn", c.config.BaseDN, "filter", filter)

	result, err := conn.conn.Search(ldap.NewSearchRequest(
		c.config.BaseDN,
		int(c.config.Scope),
		ldap.NeverDerefAliases,
		0,
		int(c.config.Timeout/time.Second),
		false,
		filter,
		c.requestedAttributes(),
		nil,
	))
	switch {
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
		c.state = StateUserNotFound
		return nil
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork):
		c.logger.Warn("ldap server dropped the connection during search", "server", conn.server, "error", err)
		c.state = StateServerDown
		return nil
	case err != nil:
		return errors.Wrapf(err, "LDAP search for user %s failed", username)
	}

	switch len(result.Entries) {
	case 0:
		c.state = StateUserNotFound
	case 1:
		c.collect(result.Entries[0])
		c.state = StateUserFound
	default:
		return errors.Wrapf(ErrMultipleEntries, "%d entries for %s", len(result.Entries), filter)
	}
	return nil
}

func (c *Client) requestedAttributes() []string {
	attrs := []string{c.config.UserNamingAttr}
	for _, attr := range c.config.UserAttributes {
		if !containsFold(attrs, attr) {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

func (c *Client) collect(entry *ldap.Entry) {
	if c.config.ReturnUserDN {
		c.userDN = entry.DN
	}

	if values := attributeValues(entry, c.config.UserNamingAttr); len(values) > 0 {
		c.userID = values[0]
	} else {
		c.userID = rdnValue(entry.DN, c.config.UserNamingAttr)
	}

	c.attributes = make(map[string][]string, len(c.config.UserAttributes))
	for _, name := range c.config.UserAttributes {
		if values := attributeValues(entry, name); len(values) > 0 {
			c.attributes[name] = values
		}
	}
}

func attributeValues(entry *ldap.Entry, name string) []string {
	for _, attr := range entry.Attributes {
		if !strings.EqualFold(attr.Name, name) {
			continue
		}
		if !strings.EqualFold(name, "objectSid") {
			return attr.Values
		}
		values := make([]string, 0, len(attr.ByteValues))
		for _, raw := range attr.ByteValues {
			sid, err := sidToString(raw)
			if err != nil {
				continue
			}
			values = append(values, sid)
		}
		return values
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
