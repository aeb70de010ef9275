// Package form derives interactive query/mutation field models from
// conventionally titled sections of a resolved document. The displayed model
// is a pure function of the document and the ordered mutation history.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/expression"
	"github.com/RoyalIcing/datadown-preview/internal/resolve"
)

// Field kinds taken from input-slot section titles ("Name: kind").
const (
	KindText    = "text"
	KindNumber  = "number"
	KindBool    = "bool"
	KindStrings = "strings"
)

// Value is a field's current value.
type Value interface{ isFieldValue() }

type Text string
type Number int
type Bool bool
type TextList []string

func (Text) isFieldValue()     {}
func (Number) isFieldValue()   {}
func (Bool) isFieldValue()     {}
func (TextList) isFieldValue() {}

// NotInChoicesError reports a value outside a field's declared choice set.
// The value is never silently corrected.
type NotInChoicesError struct {
	Value   string
	Choices []string
}

func (e *NotInChoicesError) Error() string {
	return fmt.Sprintf("%q is not one of %v", e.Value, e.Choices)
}

// Field is one interactive field definition.
type Field struct {
	Name    string
	Kind    string
	Value   Value
	Choices []string
	Err     error
	Args    []Field
}

// Model is the derived interactive model: the folded field list, the mutation
// names the document offers, and the history that produced the fold.
type Model struct {
	Fields    []Field
	Mutations []string
	History   []string
}

// Build derives the model from a resolved document, folding the mutation
// history oldest-first over the base field values. Truncating the history and
// rebuilding exactly reproduces the earlier model.
func Build(doc *resolve.Document, history []string) *Model {
	m := &Model{History: append([]string(nil), history...)}

	query := topSection(doc, "Query")
	if query != nil {
		for i := range query.Sections {
			sub := &query.Sections[i]
			if field, ok := buildField(sub); ok {
				m.Fields = append(m.Fields, field)
			}
		}
		if initial := childSection(query, "Initial"); initial != nil {
			m.apply(overlayFrom(initial.Content))
		}
	}
	if initial := topSection(doc, "Initial"); initial != nil {
		m.apply(overlayFrom(initial.Content))
	}

	overlays, names := mutationOverlays(doc)
	m.Mutations = names
	for _, name := range history {
		if overlay, ok := overlays[name]; ok {
			m.apply(overlay)
		}
	}

	m.checkChoices()
	return m
}

func topSection(doc *resolve.Document, title string) *resolve.Section {
	for i := range doc.Sections {
		if sectionName(doc.Sections[i].Title) == title {
			return &doc.Sections[i]
		}
	}
	return nil
}

func childSection(sec *resolve.Section, title string) *resolve.Section {
	for i := range sec.Sections {
		if sectionName(sec.Sections[i].Title) == title {
			return &sec.Sections[i]
		}
	}
	return nil
}

func sectionName(title string) string {
	name, _, _ := strings.Cut(title, ":")
	return strings.TrimSpace(name)
}

func sectionKind(title string) string {
	_, kind, ok := strings.Cut(title, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(kind))
}

// buildField reads one "Name: kind" subsection into a field definition, with
// defaults and choices taken from the section's own content and nested
// "Arg: kind" subsections as argument definitions.
func buildField(sec *resolve.Section) (Field, bool) {
	kind := sectionKind(sec.Title)
	if kind == "" {
		return Field{}, false
	}
	field := Field{Name: sectionName(sec.Title), Kind: kind}

	var literals []string
	var defaulted string
	for _, res := range sec.Content {
		if res.Content.Kind == document.KindList {
			// res.Items parallels the parsed items, so qualifiers line up.
			for i, item := range res.Items {
				text, ok := itemText(item)
				if !ok {
					continue
				}
				literals = append(literals, text)
				if i < len(res.Content.Items) && res.Content.Items[i].Qualifier == "default" {
					defaulted = text
				}
			}
			if kind != KindStrings {
				field.Choices = literals
			}
			continue
		}
		if field.Value == nil {
			if j, err := resolve.ContentJSON(res); err == nil {
				field.Value = fieldValue(kind, stringify(j))
			}
		}
	}

	switch kind {
	case KindStrings:
		field.Value = TextList(literals)
	default:
		if field.Value == nil && len(field.Choices) > 0 {
			if defaulted == "" {
				defaulted = field.Choices[0]
			}
			field.Value = fieldValue(kind, defaulted)
		}
		if field.Value == nil {
			field.Value = zeroValue(kind)
		}
	}

	for i := range sec.Sections {
		sub := &sec.Sections[i]
		if arg, ok := buildField(sub); ok {
			field.Args = append(field.Args, arg)
		}
	}
	return field, true
}

// itemText reads a list item's literal text. A lowercase bare word tokenizes
// as an identifier rather than a literal, so that shape is read back from the
// token name.
func itemText(res resolve.Result) (string, bool) {
	c := res.Content
	if c.Kind == document.KindExpressions && c.SynErr == nil &&
		len(c.Lines) == 1 && len(c.Lines[0]) == 1 && c.Lines[0][0].Kind == expression.TokenIdentifier {
		return c.Lines[0][0].Name, true
	}
	j, err := resolve.ContentJSON(res)
	if err != nil {
		return "", false
	}
	return stringify(j), true
}

func stringify(j any) string {
	switch j := j.(type) {
	case string:
		return j
	case float64:
		return strconv.FormatFloat(j, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(j)
	default:
		return fmt.Sprintf("%v", j)
	}
}

func fieldValue(kind, raw string) Value {
	switch kind {
	case KindNumber:
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return Number(n)
		}
		return nil
	case KindBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return Bool(b)
		}
		return nil
	case KindStrings:
		return TextList{raw}
	default:
		return Text(raw)
	}
}

func zeroValue(kind string) Value {
	switch kind {
	case KindNumber:
		return Number(0)
	case KindBool:
		return Bool(false)
	case KindStrings:
		return TextList(nil)
	default:
		return Text("")
	}
}

// Overlay maps field names to raw replacement values.
type Overlay map[string]string

// overlayFrom reads "name: value" list items and JSON object nodes.
func overlayFrom(results []resolve.Result) Overlay {
	overlay := make(Overlay)
	for _, res := range results {
		switch res.Content.Kind {
		case document.KindJSON:
			if m, ok := res.Content.JSON.(map[string]any); ok {
				for k, v := range m {
					overlay[k] = stringify(v)
				}
			}
		case document.KindList:
			for _, item := range res.Items {
				if item.Content.Kind != document.KindText {
					continue
				}
				name, value, ok := strings.Cut(item.Content.Text, ":")
				if !ok {
					continue
				}
				overlay[strings.TrimSpace(name)] = strings.TrimSpace(value)
			}
		case document.KindText:
			name, value, ok := strings.Cut(res.Content.Text, ":")
			if ok {
				overlay[strings.TrimSpace(name)] = strings.TrimSpace(value)
			}
		}
	}
	return overlay
}

// mutationOverlays reads the Mutation section's Update subsection: one
// sub-subsection per mutation name, each holding a field overlay.
func mutationOverlays(doc *resolve.Document) (map[string]Overlay, []string) {
	overlays := make(map[string]Overlay)
	var names []string
	mutation := topSection(doc, "Mutation")
	if mutation == nil {
		return overlays, names
	}
	update := childSection(mutation, "Update")
	if update == nil {
		return overlays, names
	}
	for i := range update.Sections {
		sub := &update.Sections[i]
		name := sectionName(sub.Title)
		overlays[name] = overlayFrom(sub.Content)
		names = append(names, name)
	}
	return overlays, names
}

func (m *Model) apply(overlay Overlay) {
	for i := range m.Fields {
		field := &m.Fields[i]
		raw, ok := overlay[field.Name]
		if !ok {
			continue
		}
		if v := fieldValue(field.Kind, raw); v != nil {
			field.Value = v
		}
	}
}

// checkChoices flags values outside their declared choice set with a distinct
// error rather than substituting a default.
func (m *Model) checkChoices() {
	for i := range m.Fields {
		field := &m.Fields[i]
		if len(field.Choices) == 0 {
			continue
		}
		current, ok := valueString(field.Value)
		if !ok {
			continue
		}
		legal := false
		for _, choice := range field.Choices {
			if current == choice {
				legal = true
				break
			}
		}
		if !legal {
			field.Err = &NotInChoicesError{Value: current, Choices: field.Choices}
		}
	}
}

// valueString renders a scalar field value in the same form choice literals
// take, so membership checks compare like with like.
func valueString(v Value) (string, bool) {
	switch v := v.(type) {
	case Text:
		return string(v), true
	case Number:
		return strconv.Itoa(int(v)), true
	case Bool:
		return strconv.FormatBool(bool(v)), true
	}
	return "", false
}
