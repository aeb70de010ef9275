// Package document defines the content tree for living documents and the
// parser that builds it from markdown-like source text.
package document

import (
	"strings"

	"github.com/RoyalIcing/datadown-preview/internal/expression"
)

// Document is the parsed tree of one source text: a title, content appearing
// before the first heading, and ordered nested sections. Section order is the
// addressing scheme for navigation and must be stable.
type Document struct {
	Title    string
	Intro    []Content
	Sections []Section
}

// Section is a named, ordered group of content plus nested subsections.
type Section struct {
	Title    string // full heading text, including any input-slot kind suffix
	Content  []Content
	Sections []Section
}

// Name returns the title text before the first colon. For an input-slot
// section ("Name: kind") this is the part that feeds the override key path.
func (s Section) Name() string {
	name, _, _ := strings.Cut(s.Title, ":")
	return strings.TrimSpace(name)
}

// Kind returns the input-slot kind string after the first colon, or "".
// The kind is consumed only by the form-rendering collaborator.
func (s Section) Kind() string {
	_, kind, ok := strings.Cut(s.Title, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(kind)
}

// PathSegment is the section's identifier segment: the name part lowercased
// with spaces as underscores. Joined with ancestor segments root-to-leaf by
// "." it forms the section's lookup path and override key.
func (s Section) PathSegment() string {
	return PathSegment(s.Name())
}

// PathSegment normalizes one title for identifier lookup.
func PathSegment(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ContentKind discriminates the Content union.
type ContentKind int

const (
	KindText ContentKind = iota
	KindCode
	KindJSON
	KindList
	KindQuote
	KindExpressions
	KindReference
)

var kindNames = map[ContentKind]string{
	KindText:        "text",
	KindCode:        "code",
	KindJSON:        "json",
	KindList:        "list",
	KindQuote:       "quote",
	KindExpressions: "expressions",
	KindReference:   "reference",
}

func (k ContentKind) String() string { return kindNames[k] }

// Content is one typed unit of document body.
type Content struct {
	Kind ContentKind

	Text string // KindText

	Lang   string // KindCode
	Source string // KindCode

	JSON any // KindJSON, decoded

	Items []ListItem // KindList

	Quote *Document // KindQuote

	// KindExpressions: independently tokenized lines, or the preserved
	// positioned tokenizer failure when a line broke mid-way.
	Lines  [][]expression.Token
	SynErr *expression.SyntaxError

	Ref *Reference // KindReference
}

// ListItem pairs an item's content with its optional trailing qualifier.
type ListItem struct {
	Content   Content
	Qualifier string
}

// Reference addresses an entry of the remote-call response table by id plus a
// dotted key path ("params...", "result...", "error...").
type Reference struct {
	ID      string
	KeyPath string
	RawJSON string // optional raw JSON payload carried by the reference
}
