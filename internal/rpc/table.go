package rpc

import "sync"

// ErrorObject is the structured error half of a response.
type ErrorObject struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is the delivered outcome of a dispatched request. Exactly one of
// Result and Error is meaningful.
type Response struct {
	ID     string       `json:"id"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorObject `json:"error,omitempty"`
}

// JSON returns the error detail as a generic decoded value.
func (e *ErrorObject) JSON() map[string]any {
	m := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Data != nil {
		m["data"] = e.Data
	}
	return m
}

// Entry is one table slot: the stored request once dispatched, plus the
// response once delivered. A nil Response means the call is still pending.
type Entry struct {
	Request  *Request
	Response *Response
}

// Resolved reports whether a response has arrived.
func (e Entry) Resolved() bool { return e.Response != nil }

// Table is the session-wide id-keyed response store. Entries move from absent
// to pending to resolved and are never deleted within a session. External
// event handlers write; the resolver only reads.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewTable() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// MarkDispatched records a pending entry for the request, keeping its payload
// readable through "params" key-paths. Re-marking an id is a no-op.
func (t *Table) MarkDispatched(req *Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[req.ID]; ok {
		return
	}
	t.entries[req.ID] = &Entry{Request: req}
}

// Dispatched reports whether the id already has an entry.
func (t *Table) Dispatched(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[id]
	return ok
}

// Deliver merges a response. A response for an id never marked dispatched is
// kept anyway; it only affects content that still references the id.
func (t *Table) Deliver(resp Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[resp.ID]
	if !ok {
		e = &Entry{}
		t.entries[resp.ID] = e
	}
	r := resp
	e.Response = &r
}

// Lookup returns a copy of the entry for id.
func (t *Table) Lookup(id string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}
