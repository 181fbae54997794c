package directory

import (
	"bytes"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
)

// userFilter matches the username against every search attribute and, when
// an object filter other than the default is configured, AND-s the two.
//
// Example with searchAttrs [uid mail] and Filter "(objectClass=inetOrgPerson)":
//
//	(&(objectClass=inetOrgPerson)(|(uid=alice)(mail=alice)))
func (c *Client) userFilter(username string) (string, error) {
	escaped := ldap.EscapeFilter(username)

	var match strings.Builder
	attrs := c.config.UserSearchAttrs
	if len(attrs) > 1 {
		match.WriteString("(|")
	}
	for _, attr := range attrs {
		match.WriteString("(" + attr + "=" + escaped + ")")
	}
	if len(attrs) > 1 {
		match.WriteString(")")
	}

	if c.filter == nil {
		return match.String(), nil
	}

	context := struct {
		Username string
	}{
		escaped,
	}

	var rendered bytes.Buffer
	if err := c.filter.Execute(&rendered, context); err != nil {
		return "", errors.Wrap(err, "cannot execute user search filter template")
	}

	return "(&" + rendered.String() + match.String() + ")", nil
}
