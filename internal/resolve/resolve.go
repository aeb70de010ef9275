// Package resolve walks a parsed document and computes every value, threading
// identifier lookups, external inputs and remote-call responses through the
// expression evaluator. Resolution is a pure function of the document text and
// the external-input snapshot.
package resolve

import (
	"strings"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/expression"
	"github.com/RoyalIcing/datadown-preview/internal/rpc"
)

// Overrides answers per-path field-input values supplied by the form
// collaborator. An explicit empty string is the sentinel for "use the
// computed default".
type Overrides func(path string) (string, bool)

// Builtins answers reserved identifier families (clock-derived keys).
type Builtins func(name string) (expression.Value, bool)

// Config is the external-input snapshot for one resolution pass.
type Config struct {
	Overrides Overrides
	Builtins  Builtins
	Responses *rpc.Table
}

// Result is one resolved content node: the original content plus its computed
// value or contained error. A failure here never fails siblings.
type Result struct {
	Content document.Content
	Value   expression.Value
	Err     error

	Items []Result  // list items, resolved independently
	Quote *Document // nested document, resolved in an independent scope
}

// Section mirrors a parsed section with resolved content and the remote-call
// descriptors its content produced.
type Section struct {
	Title    string
	Content  []Result
	Requests []*rpc.Request
	Sections []Section
}

// Document is one full resolution pass over a parsed document.
type Document struct {
	Title    string
	Intro    []Result
	Sections []Section

	// Requests lists every discovered descriptor in walk order, deduplicated
	// by id across the pass.
	Requests []*rpc.Request
}

// Resolve runs one pass. Sections are memoized so a section referenced from
// several places resolves once; an in-progress marker turns cyclic lookups
// into lookup failures instead of unbounded recursion.
func Resolve(doc *document.Document, cfg Config) *Document {
	r := &resolver{
		doc:  doc,
		cfg:  cfg,
		memo: make(map[*document.Section]*memoEntry),
	}

	out := &Document{Title: doc.Title}

	var introReqs []*rpc.Request
	for _, c := range doc.Intro {
		out.Intro = append(out.Intro, r.resolveContent(c, &introReqs))
	}

	for i := range doc.Sections {
		entry := r.section(&doc.Sections[i])
		out.Sections = append(out.Sections, *entry.section)
	}

	out.Requests = collectRequests(introReqs, out.Sections)
	return out
}

type memoEntry struct {
	inProgress bool
	section    *Section
	value      expression.Value
}

type resolver struct {
	doc  *document.Document
	cfg  Config
	memo map[*document.Section]*memoEntry
}

// section resolves one section through the per-pass memo. The memo is keyed
// by identity: sibling sections whose titles normalize to the same path
// resolve independently, and only lookups go through path matching.
func (r *resolver) section(sec *document.Section) *memoEntry {
	if entry, ok := r.memo[sec]; ok {
		return entry
	}
	entry := &memoEntry{inProgress: true}
	r.memo[sec] = entry

	resolved := &Section{Title: sec.Title}
	for _, c := range sec.Content {
		resolved.Content = append(resolved.Content, r.resolveContent(c, &resolved.Requests))
	}
	for i := range sec.Sections {
		childEntry := r.section(&sec.Sections[i])
		resolved.Sections = append(resolved.Sections, *childEntry.section)
	}

	entry.section = resolved
	entry.value = sectionValue(resolved)
	entry.inProgress = false
	return entry
}

// sectionValue is the value a section contributes to identifier lookups: the
// last content item that produced one.
func sectionValue(sec *Section) expression.Value {
	for i := len(sec.Content) - 1; i >= 0; i-- {
		res := sec.Content[i]
		if res.Err == nil && res.Value != nil {
			return res.Value
		}
	}
	return nil
}

// lookup is the identifier resolver handed to the evaluator: field overrides
// first (unless the empty-string sentinel asks for the computed default), then
// same-document sections, then built-ins.
func (r *resolver) lookup(name string) (expression.Value, error) {
	if r.cfg.Overrides != nil {
		if v, ok := r.cfg.Overrides(name); ok && v != "" {
			return expression.Text(v), nil
		}
	}
	if sec := findSection(r.doc.Sections, name); sec != nil {
		if entry, ok := r.memo[sec]; ok && entry.inProgress {
			return nil, &expression.NoValueError{Name: name}
		}
		entry := r.section(sec)
		if entry.value != nil {
			return entry.value, nil
		}
		return nil, &expression.NoValueError{Name: name}
	}
	if r.cfg.Builtins != nil {
		if v, ok := r.cfg.Builtins(name); ok {
			return v, nil
		}
	}
	return nil, &expression.NoValueError{Name: name}
}

// findSection walks a dotted path through the section tree. The first section
// matching each normalized segment wins.
func findSection(sections []document.Section, path string) *document.Section {
	head, rest, nested := strings.Cut(path, ".")
	for i := range sections {
		sec := &sections[i]
		if sec.PathSegment() != head {
			continue
		}
		if !nested {
			return sec
		}
		return findSection(sec.Sections, rest)
	}
	return nil
}

func (r *resolver) resolveContent(c document.Content, reqs *[]*rpc.Request) Result {
	switch c.Kind {
	case document.KindText:
		return Result{Content: c, Value: expression.Text(c.Text)}

	case document.KindCode:
		if c.Lang == "graphql" {
			req := rpc.NewGraphQL(c.Source)
			*reqs = append(*reqs, req)
		}
		return Result{Content: c, Value: expression.Text(strings.TrimSpace(c.Source))}

	case document.KindJSON:
		if req, ok := rpc.FromJSON(c.JSON); ok {
			*reqs = append(*reqs, req)
		}
		return Result{Content: c, Value: expression.FromJSON(c.JSON)}

	case document.KindExpressions:
		if c.SynErr != nil {
			return Result{Content: c, Err: c.SynErr}
		}
		v, err := expression.EvaluateBlock(c.Lines, r.lookup)
		if err != nil {
			return Result{Content: c, Err: err}
		}
		if req, ok := v.(expression.Request); ok {
			*reqs = append(*reqs, req.Req)
		}
		return Result{Content: c, Value: v}

	case document.KindList:
		res := Result{Content: c}
		var values expression.List
		for _, item := range c.Items {
			itemRes := r.resolveContent(item.Content, reqs)
			res.Items = append(res.Items, itemRes)
			if itemRes.Err == nil && itemRes.Value != nil {
				values = append(values, itemRes.Value)
			}
		}
		res.Value = values
		return res

	case document.KindQuote:
		// Independent identifier scope: same inputs, fresh memo, no leakage
		// into or out of the parent document. Discovered descriptors still
		// bubble up so the enclosing pass can dispatch them.
		nested := Resolve(c.Quote, r.cfg)
		*reqs = append(*reqs, nested.Requests...)
		return Result{Content: c, Quote: nested}

	case document.KindReference:
		v := r.resolveReference(c.Ref)
		return Result{Content: c, Value: v}
	}
	return Result{Content: c}
}

// resolveReference reads the response table. Absent and pending entries answer
// a neutral null; a failed call is ordinary data under the "error" key path
// while "result" degrades to null.
func (r *resolver) resolveReference(ref *document.Reference) expression.Value {
	head, rest, _ := strings.Cut(ref.KeyPath, ".")

	var entry rpc.Entry
	var ok bool
	if r.cfg.Responses != nil {
		entry, ok = r.cfg.Responses.Lookup(ref.ID)
	}

	switch head {
	case "params":
		if ok && entry.Request != nil {
			return expression.FromJSON(narrow(entry.Request.Params, rest))
		}
		if raw := ref.RawJSON; raw != "" {
			if v, err := decodeJSON(raw); err == nil {
				return expression.FromJSON(narrow(v, rest))
			}
		}
		return expression.Null

	case "result":
		if ok && entry.Resolved() && entry.Response.Error == nil {
			return expression.FromJSON(narrow(entry.Response.Result, rest))
		}
		return expression.Null

	case "error":
		if ok && entry.Resolved() && entry.Response.Error != nil {
			return expression.FromJSON(narrow(entry.Response.Error.JSON(), rest))
		}
		return expression.Null
	}
	return expression.Null
}

func collectRequests(intro []*rpc.Request, sections []Section) []*rpc.Request {
	seen := make(map[string]bool)
	var out []*rpc.Request
	add := func(reqs []*rpc.Request) {
		for _, req := range reqs {
			if seen[req.ID] {
				continue
			}
			seen[req.ID] = true
			out = append(out, req)
		}
	}
	add(intro)
	var walk func(secs []Section)
	walk = func(secs []Section) {
		for i := range secs {
			add(secs[i].Requests)
			walk(secs[i].Sections)
		}
	}
	walk(sections)
	return out
}
