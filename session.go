package nodeedit

import (
	"fmt"
	"log/slog"
	"sync"
)

// DocumentStore holds the text of the one document being edited. It has no
// transactional guarantees: the last write wins.
type DocumentStore interface {
	DocumentText() (string, error)
	SetDocumentText(text string) error
}

// Selection reports the currently selected node.
type Selection interface {
	SelectedNode() (Node, bool)
}

// SelectionFunc adapts a function to Selection.
type SelectionFunc func() (Node, bool)

func (f SelectionFunc) SelectedNode() (Node, bool) { return f() }

// Selected returns a Selection that always reports n.
func Selected(n Node) Selection {
	return SelectionFunc(func() (Node, bool) { return n, true })
}

// Notifier is told when a commit fails.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type Option func(*Session)

// WithLogger sets the session logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notify = n }
}

// WithOnClose registers fn to run after a successful save.
func WithOnClose(fn func()) Option {
	return func(s *Session) { s.onClose = fn }
}

// Session is the view/edit/save cycle for the selected node. Saves are
// serialised so at most one read-modify-write of the store is in flight.
type Session struct {
	mu      sync.Mutex
	store   DocumentStore
	sel     Selection
	notify  Notifier
	onClose func()
	log     *slog.Logger

	editing bool
	buffer  string
}

func NewSession(store DocumentStore, sel Selection, opts ...Option) *Session {
	s := &Session{
		store: store,
		sel:   sel,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Content is the formatted content of the selected node, "{}" when nothing
// is selected.
func (s *Session) Content() string {
	n, ok := s.sel.SelectedNode()
	if !ok {
		return Format(nil)
	}
	return Format(n.Rows)
}

// Locator is the rendered path of the selected node, "$" when nothing is
// selected.
func (s *Session) Locator() string {
	n, ok := s.sel.SelectedNode()
	if !ok {
		return Render(nil)
	}
	return Render(n.Path)
}

// Edit enters edit mode with the buffer seeded from the node content. It
// reports false when nothing is selected.
func (s *Session) Edit() bool {
	n, ok := s.sel.SelectedNode()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = Format(n.Rows)
	s.editing = true
	return true
}

func (s *Session) SetBuffer(text string) {
	s.mu.Lock()
	s.buffer = text
	s.mu.Unlock()
}

func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

func (s *Session) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// Cancel leaves edit mode and drops the buffer.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.editing = false
	s.buffer = ""
	s.mu.Unlock()
}

// Save commits the buffer at the selected node's path and writes the updated
// document to the store. On failure the store is left untouched, the session
// stays in edit mode and the notifier is told. Saving with nothing selected
// does nothing.
func (s *Session) Save() error {
	n, ok := s.sel.SelectedNode()
	if !ok {
		return nil
	}

	s.mu.Lock()
	err := s.commit(n.Path, s.buffer)
	if err == nil {
		s.editing = false
		s.buffer = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("edit not saved", slog.String("path", Render(n.Path)), slog.String("error", err.Error()))
		if s.notify != nil {
			s.notify.Notify(err)
		}
		return err
	}
	s.log.Debug("edit saved", slog.String("path", Render(n.Path)))
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

func (s *Session) commit(path Path, text string) error {
	if _, err := parseValue([]byte(text)); err != nil {
		return &ParseError{Err: err}
	}
	var current []byte
	if len(path) > 0 {
		doc, err := s.store.DocumentText()
		if err != nil {
			return fmt.Errorf("nodeedit: read document: %w", err)
		}
		current = []byte(doc)
	}
	out, err := Apply(current, path, text)
	if err != nil {
		return err
	}
	if err := s.store.SetDocumentText(string(out)); err != nil {
		return fmt.Errorf("nodeedit: write document: %w", err)
	}
	return nil
}
