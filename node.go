package ldapquery

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/xonoko/ldapquery/directory"
	"github.com/xonoko/ldapquery/internal/i18n"
)

// Outcome is the branch a node takes.
type Outcome string

const (
	OutcomeTrue  Outcome = "true"
	OutcomeFalse Outcome = "false"
)

// TreeContext is the per-request input of a node.
type TreeContext struct {
	SharedState SharedState
	// Locales are the preferred languages of the request, most preferred first.
	Locales []string
}

// Action is the result of a node.
type Action struct {
	Outcome     Outcome
	SharedState SharedState
}

// Node decides whether the user named in shared state exists in the
// directory. A Node holds no per-request state and may serve concurrent
// requests.
type Node struct {
	config   Config
	factory  DirectoryFactory
	messages *i18n.Bundle
	logger   hclog.Logger
}

type Option func(*Node)

func WithLogger(logger hclog.Logger) Option {
	return func(n *Node) {
		n.logger = logger
	}
}

func WithDirectoryFactory(factory DirectoryFactory) Option {
	return func(n *Node) {
		n.factory = factory
	}
}

func WithMessages(messages *i18n.Bundle) Option {
	return func(n *Node) {
		n.messages = messages
	}
}

// NewNode validates config and returns a Node using it.
func NewNode(config Config, opts ...Option) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n := &Node{
		config:  config.normalized(),
		factory: directoryFactory{},
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.messages == nil {
		messages, err := i18n.New()
		if err != nil {
			return nil, errors.Wrap(err, "cannot load messages")
		}
		n.messages = messages
	}
	return n, nil
}

// OutcomeLabel pairs an outcome with its display name.
type OutcomeLabel struct {
	Outcome Outcome
	Label   string
}

// Outcomes lists the outcomes of the node labelled for locales.
func (n *Node) Outcomes(locales []string) []OutcomeLabel {
	return []OutcomeLabel{
		{Outcome: OutcomeTrue, Label: n.messages.Message(locales, i18n.MsgOutcomeTrue)},
		{Outcome: OutcomeFalse, Label: n.messages.Message(locales, i18n.MsgOutcomeFalse)},
	}
}

// Process looks up the user and returns the outcome together with a copy of
// the shared state, extended with the user's attributes when configured.
// Failures are logged and yield OutcomeFalse.
func (n *Node) Process(ctx context.Context, tc TreeContext) Action {
	n.logger.Debug("ldap query node started")
	state := tc.SharedState.Copy()
	reject := Action{Outcome: OutcomeFalse, SharedState: state}

	dir, err := n.initializeLDAP(tc.Locales)
	if err != nil {
		n.logger.Error("cannot create directory client", "error", err)
		return reject
	}

	username, _ := tc.SharedState.String(UsernameKey)
	if err := dir.SearchForUser(ctx, username); err != nil {
		n.logger.Error("user search failed", "username", username, "error", err)
		return reject
	}

	result := dir.State()
	n.logger.Debug("user search finished", "username", username, "result", result)

	switch result {
	case directory.StateUserFound:
		n.logger.Info("user found", "username", username)
		if n.config.SaveToSharedState && len(n.config.AttributesToSave) > 0 {
			saved := n.saveAttributes(state, dir.UserAttributeValues())
			n.logger.Debug("saved user attributes to shared state", "attributes", saved)
		}
		return Action{Outcome: OutcomeTrue, SharedState: state}
	case directory.StateUserNotFound:
		n.logger.Info("user not found", "username", username)
	case directory.StateServerDown:
		n.logger.Warn("no directory server reachable", "username", username)
	default:
		n.logger.Warn("unexpected user search result", "username", username, "result", result)
	}
	return reject
}

func (n *Node) initializeLDAP(locales []string) (Directory, error) {
	cfg := n.config.DirectoryConfig()
	dir, err := n.factory.NewDirectory(cfg, n.logger.Named("directory"))
	if err != nil {
		return nil, errors.Wrap(err, n.messages.Message(locales, i18n.MsgNoServer))
	}

	n.logger.Debug("directory client initialized",
		"primary_servers", cfg.PrimaryServers,
		"secondary_servers", cfg.SecondaryServers,
		"secure", cfg.Secure,
		"start_tls", cfg.StartTLS,
		"trust_all", cfg.Insecure,
		"base_dn", cfg.BaseDN,
		"scope", n.config.SearchScope,
		"search_filter", cfg.Filter,
		"user_naming_attr", cfg.UserNamingAttr,
		"user_search_attrs", cfg.UserSearchAttrs,
		"attributes", cfg.UserAttributes,
		"heartbeat", cfg.HeartbeatInterval,
		"timeout", cfg.Timeout,
	)
	return dir, nil
}

func (n *Node) saveAttributes(state SharedState, attributes map[string][]string) []string {
	names := make([]string, 0, len(attributes))
	for name, values := range attributes {
		state[name] = sharedStateValue(values)
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// sharedStateValue flattens attribute values into one string.
func sharedStateValue(values []string) string {
	return bracketStripper.Replace(strings.Join(values, ", "))
}
