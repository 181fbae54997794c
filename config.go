package ldapquery

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/gcfg.v1"

	"github.com/xonoko/ldapquery/directory"
)

// Config is the node configuration. Set-valued settings keep their
// configured order, duplicates are dropped when a Node is created.
//
// Hosts building a Config in code must start from DefaultConfig: the zero
// value has a heartbeat interval of 0, which disables the heartbeat.
type Config struct {
	PrimaryServers             []string          `json:"primaryServers" gcfg:"primary-server" validate:"required,min=1,dive,hostname_port"`
	SecondaryServers           []string          `json:"secondaryServers" gcfg:"secondary-server" validate:"omitempty,dive,hostname_port"`
	ConnectionMode             ConnectionMode    `json:"ldapConnectionMode" gcfg:"connection-mode" validate:"enum"`
	TrustAllServerCertificates bool              `json:"trustAllServerCertificates" gcfg:"trust-all-server-certificates"`
	AccountSearchBaseDN        []string          `json:"accountSearchBaseDn" gcfg:"account-search-base-dn" validate:"required,min=1,dive,required"`
	AdminDN                    string            `json:"adminDn" gcfg:"admin-dn" validate:"required"`
	AdminPassword              string            `json:"adminPassword" gcfg:"admin-password" validate:"required"`
	SearchFilterAttributes     []string          `json:"searchFilterAttributes" gcfg:"search-filter-attribute" validate:"required,min=1,dive,required"`
	UserProfileAttribute       string            `json:"userProfileAttribute" gcfg:"user-profile-attribute" validate:"required"`
	UserSearchFilter           string            `json:"userSearchFilter" gcfg:"user-search-filter"`
	SaveToSharedState          bool              `json:"saveToSharedState" gcfg:"save-to-shared-state"`
	AttributesToSave           []string          `json:"attributesToSave" gcfg:"attribute-to-save" validate:"omitempty,dive,required"`
	SearchScope                SearchScope       `json:"searchScope" gcfg:"search-scope" validate:"enum"`
	HeartbeatInterval          int               `json:"heartbeatInterval" gcfg:"heartbeat-interval" validate:"min=0"`
	HeartbeatTimeUnit          HeartbeatTimeUnit `json:"heartbeatTimeUnit" gcfg:"heartbeat-time-unit" validate:"enum"`
	LDAPOperationsTimeout      int               `json:"ldapOperationsTimeout" gcfg:"ldap-operations-timeout" validate:"min=0"`
}

// DefaultConfig returns a Config holding the defaults of every optional setting.
func DefaultConfig() Config {
	return Config{
		ConnectionMode:    ConnectionModeLDAP,
		SearchScope:       SearchScopeSubtree,
		HeartbeatInterval: 10,
		HeartbeatTimeUnit: HeartbeatSeconds,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ IsValid() bool })
		return ok && e.IsValid()
	})
	return v
}

// Validate reports every setting that is missing or malformed as a
// *directory.ConfigError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "cannot validate configuration")
	}

	var result error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, &directory.ConfigError{Field: fe.Field(), Reason: reason(fe)})
	}
	return result
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "a value is required"
	case "min":
		return "must be at least " + fe.Param()
	case "hostname_port":
		return fmt.Sprintf("%q is not a host:port pair", fe.Value())
	case "enum":
		return fmt.Sprintf("%v is not a known value", fe.Value())
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// HeartbeatPeriod is the heartbeat interval expressed in its time unit.
func (c Config) HeartbeatPeriod() time.Duration {
	return c.HeartbeatTimeUnit.Duration(c.HeartbeatInterval)
}

// OperationTimeout is zero when LDAP operations are unbounded.
func (c Config) OperationTimeout() time.Duration {
	return time.Duration(c.LDAPOperationsTimeout) * time.Second
}

// DirectoryConfig translates the node configuration into directory client
// parameters without connecting.
func (c Config) DirectoryConfig() directory.Config {
	startTLS := c.ConnectionMode == ConnectionModeStartTLS
	return directory.Config{
		PrimaryServers:    c.PrimaryServers,
		SecondaryServers:  c.SecondaryServers,
		Secure:            c.ConnectionMode == ConnectionModeLDAPS || startTLS,
		StartTLS:          startTLS,
		Insecure:          c.TrustAllServerCertificates,
		Timeout:           c.OperationTimeout(),
		HeartbeatInterval: c.HeartbeatPeriod(),
		BindDN:            c.AdminDN,
		BindPassword:      c.AdminPassword,
		BaseDN:            strings.Join(c.AccountSearchBaseDN, ","),
		Scope:             c.SearchScope.Scope(),
		Filter:            c.UserSearchFilter,
		UserNamingAttr:    c.UserProfileAttribute,
		UserSearchAttrs:   c.SearchFilterAttributes,
		ReturnUserDN:      false,
		UserAttributes:    c.AttributesToSave,
	}
}

func (c Config) normalized() Config {
	c.PrimaryServers = uniq(c.PrimaryServers)
	c.SecondaryServers = uniq(c.SecondaryServers)
	c.AccountSearchBaseDN = uniq(c.AccountSearchBaseDN)
	c.SearchFilterAttributes = uniq(c.SearchFilterAttributes)
	c.AttributesToSave = uniq(c.AttributesToSave)
	return c
}

func uniq(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// String renders the configuration with the admin password hidden.
func (c Config) String() string {
	password := "<empty>"
	if c.AdminPassword != "" {
		password = "<hidden>"
	}
	return fmt.Sprintf("primaryServers=%v secondaryServers=%v ldapConnectionMode=%s trustAllServerCertificates=%t "+
		"accountSearchBaseDn=%v adminDn=%q adminPassword=%s searchFilterAttributes=%v userProfileAttribute=%q "+
		"userSearchFilter=%q saveToSharedState=%t attributesToSave=%v searchScope=%s heartbeatInterval=%d "+
		"heartbeatTimeUnit=%s ldapOperationsTimeout=%d",
		c.PrimaryServers, c.SecondaryServers, c.ConnectionMode, c.TrustAllServerCertificates,
		c.AccountSearchBaseDN, c.AdminDN, password, c.SearchFilterAttributes, c.UserProfileAttribute,
		c.UserSearchFilter, c.SaveToSharedState, c.AttributesToSave, c.SearchScope, c.HeartbeatInterval,
		c.HeartbeatTimeUnit, c.LDAPOperationsTimeout)
}

type configFile struct {
	LdapQuery Config `gcfg:"ldap-query"`
}

// LoadConfigFile reads the [ldap-query] section of an INI file on top of
// DefaultConfig and validates the result.
func LoadConfigFile(path string) (Config, error) {
	file := configFile{LdapQuery: DefaultConfig()}
	if err := gcfg.ReadFileInto(&file, path); err != nil {
		return Config{}, errors.Wrapf(err, "cannot read config file %s", path)
	}
	return checked(file.LdapQuery)
}

// ParseConfig is LoadConfigFile for configuration held in memory.
func ParseConfig(text string) (Config, error) {
	file := configFile{LdapQuery: DefaultConfig()}
	if err := gcfg.ReadStringInto(&file, text); err != nil {
		return Config{}, errors.Wrap(err, "cannot parse config")
	}
	return checked(file.LdapQuery)
}

func checked(c Config) (Config, error) {
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
