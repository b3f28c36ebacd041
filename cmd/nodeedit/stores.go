package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kevinwang15/nodeedit/store"
)

// opened is the document a command works on. base holds the raw text as
// stored; doc is the JSON view of it that edits go through.
type opened struct {
	name  string
	base  store.Store
	doc   store.Store
	close func() error
}

func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// viewOf returns the JSON view of base, converting YAML documents.
func viewOf(name string, base store.Store) store.Store {
	if isYAML(name) {
		return store.NewYAML(base)
	}
	return base
}

func (a *app) open(args []string) (*opened, error) {
	if a.badgerDir == "" {
		if len(args) != 1 {
			return nil, errors.New("a FILE argument is required unless --badger is set")
		}
		base := store.NewFile(args[0])
		return &opened{
			name:  args[0],
			base:  base,
			doc:   viewOf(args[0], base),
			close: func() error { return nil },
		}, nil
	}

	if len(args) != 0 {
		return nil, errors.New("FILE cannot be combined with --badger; use --name")
	}
	if a.docName == "" {
		return nil, errors.New("--name is required with --badger")
	}
	cfg := store.DefaultBadgerConfig()
	cfg.Path = a.badgerDir
	if a.verbose {
		cfg.Logger = a.log.With("component", "badger")
	}
	db, err := store.OpenBadger(cfg)
	if err != nil {
		return nil, err
	}
	base := store.NewBadger(db, a.docName)
	return &opened{
		name:  fmt.Sprintf("%s:%s", a.badgerDir, a.docName),
		base:  base,
		doc:   viewOf(a.docName, base),
		close: db.Close,
	}, nil
}
