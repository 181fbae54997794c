package ldapquery

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/xonoko/ldapquery/directory"
)

// Directory is the part of a directory client the node drives.
type Directory interface {
	SearchForUser(ctx context.Context, username string) error
	State() directory.State
	UserAttributeValues() map[string][]string
}

// DirectoryFactory builds a Directory for one lookup.
type DirectoryFactory interface {
	NewDirectory(config directory.Config, logger hclog.Logger) (Directory, error)
}

type directoryFactory struct{}

func (directoryFactory) NewDirectory(config directory.Config, logger hclog.Logger) (Directory, error) {
	c, err := directory.NewClient(config, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}
