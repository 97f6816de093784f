// Package webhelp prepares built topics for browsing without a help viewer
// and writes the tabbed index page that hosts them
package webhelp

import (
	"context"

	"github.com/sandcastle-helpers/helpbuild/pkg/chm"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
	"github.com/sandcastle-helpers/helpbuild/pkg/store"
)

// Converter strips viewer-specific markup from the topics of a web help
// tree and records their titles. Topics stay UTF-8.
type Converter struct {
	Dictionary *store.PersistentDictionary
	Logger     logger.Logger
	Limit      int
}

// ConvertTree converts the topics under dir in place
func (c *Converter) ConvertTree(ctx context.Context, dir string) ([]*chm.Page, error) {
	conv := &chm.Converter{
		Dictionary: c.Dictionary,
		Logger:     c.Logger,
		Limit:      c.Limit,
	}
	return conv.ConvertTree(ctx, dir, dir)
}
