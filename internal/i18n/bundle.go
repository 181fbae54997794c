// Package i18n holds the localized messages of the ldap query node.
package i18n

import (
	"embed"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Resource is the base name of the message files.
const Resource = "ldapquerynode"

const (
	MsgNoServer     = "NoServer"
	MsgOutcomeTrue  = "TrueOutcome"
	MsgOutcomeFalse = "FalseOutcome"
)

//go:embed locales/*.yaml
var locales embed.FS

type Bundle struct {
	bundle *goi18n.Bundle
}

// New loads every embedded message file. English is the fallback language.
func New() (*Bundle, error) {
	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.Glob(locales, "locales/"+Resource+".*.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "cannot list message files")
	}
	for _, file := range files {
		if _, err := b.LoadMessageFileFS(locales, file); err != nil {
			return nil, errors.Wrapf(err, "cannot load message file %s", file)
		}
	}
	return &Bundle{bundle: b}, nil
}

// Message returns the message id in the first of locales that has it, then
// in English. An unknown id is returned as is.
func (b *Bundle) Message(locales []string, id string) string {
	localizer := goi18n.NewLocalizer(b.bundle, locales...)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// Languages lists the languages messages are available in.
func (b *Bundle) Languages() []language.Tag {
	return b.bundle.LanguageTags()
}
