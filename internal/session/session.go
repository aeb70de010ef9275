// Package session holds the per-document state that survives across
// resolution passes: source text, the field-override table, the remote-call
// response table and the mutation history. Mutators are called by external
// event handlers; Resolve reads a consistent snapshot.
package session

import (
	"sync"
	"time"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/form"
	"github.com/RoyalIcing/datadown-preview/internal/resolve"
	"github.com/RoyalIcing/datadown-preview/internal/rpc"
)

// Session is one living document plus its external-input tables.
type Session struct {
	mu sync.Mutex

	key     string
	source  string
	doc     *document.Document
	fields  map[string]string
	history []string

	responses *rpc.Table
	now       func() time.Time

	subscribers map[int]chan struct{}
	nextSub     int
}

func New(key, source string) *Session {
	return &Session{
		key:         key,
		source:      source,
		doc:         document.Parse(source),
		fields:      make(map[string]string),
		responses:   rpc.NewTable(),
		now:         time.Now,
		subscribers: make(map[int]chan struct{}),
	}
}

// SetClock replaces the clock feeding the now.* builtins (tests use a fixed
// one).
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Session) Key() string { return s.key }

// Source returns the current source text.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Document returns the parsed tree for the current source.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// SetSource replaces the source text and reparses.
func (s *Session) SetSource(source string) {
	s.mu.Lock()
	s.source = source
	s.doc = document.Parse(source)
	s.mu.Unlock()
	s.notify()
}

// SetField records a field-input override for a dotted path. An empty string
// is the sentinel asking the resolver for the computed default.
func (s *Session) SetField(path, value string) {
	s.mu.Lock()
	s.fields[path] = value
	s.mu.Unlock()
	s.notify()
}

// DeliverResponse merges a remote-call response into the table. Stale
// responses are kept; they only affect content still referencing their id.
func (s *Session) DeliverResponse(resp rpc.Response) {
	s.responses.Deliver(resp)
	s.notify()
}

// MarkDispatched records that a descriptor has been handed to the network
// collaborator, making its params readable through references.
func (s *Session) MarkDispatched(req *rpc.Request) {
	already := s.responses.Dispatched(req.ID)
	s.responses.MarkDispatched(req)
	if !already {
		s.notify()
	}
}

// Dispatched reports whether an id already has a table entry.
func (s *Session) Dispatched(id string) bool {
	return s.responses.Dispatched(id)
}

// ApplyMutation appends a mutation name to the ordered history.
func (s *Session) ApplyMutation(name string) {
	s.mu.Lock()
	s.history = append(s.history, name)
	s.mu.Unlock()
	s.notify()
}

// TruncateHistory keeps the oldest n entries; rebuilding the model then
// exactly reproduces the earlier state, so truncation is undo.
func (s *Session) TruncateHistory(n int) {
	s.mu.Lock()
	if n < 0 {
		n = 0
	}
	if n < len(s.history) {
		s.history = s.history[:n]
	}
	s.mu.Unlock()
	s.notify()
}

// History returns a copy of the mutation history.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Resolve runs one full pass against the current snapshot. An unchanged
// snapshot yields an identical resolved tree.
func (s *Session) Resolve() *resolve.Document {
	s.mu.Lock()
	doc := s.doc
	fields := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	now := s.now
	s.mu.Unlock()

	return resolve.Resolve(doc, resolve.Config{
		Overrides: func(path string) (string, bool) {
			v, ok := fields[path]
			return v, ok
		},
		Builtins:  resolve.ClockBuiltins(now),
		Responses: s.responses,
	})
}

// Model derives the query/mutation field model from a fresh pass.
func (s *Session) Model() *form.Model {
	resolved := s.Resolve()
	return form.Build(resolved, s.History())
}

// Subscribe registers for change notifications. The returned cancel func must
// be called when done.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
