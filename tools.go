//go:build tools

package ldapquery

import (
	_ "go.uber.org/mock/mockgen"
)
