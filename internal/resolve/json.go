package resolve

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/RoyalIcing/datadown-preview/internal/document"
	"github.com/RoyalIcing/datadown-preview/internal/expression"
)

func decodeJSON(raw string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}

// narrow walks a dotted key path into a decoded JSON value: object keys by
// name, array elements by index. A missing step answers nil.
func narrow(v any, path string) any {
	if path == "" {
		return v
	}
	for _, seg := range strings.Split(path, ".") {
		switch cur := v.(type) {
		case map[string]any:
			v = cur[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur) {
				return nil
			}
			v = cur[i]
		default:
			return nil
		}
	}
	return v
}

// ContentJSON converts a resolved content node to a decoded JSON value, the
// conversion used for field defaults and reference params. Expression blocks
// convert only when they are a single bare literal; list items that fail to
// convert are dropped rather than failing the list; quotes never convert.
func ContentJSON(res Result) (any, error) {
	c := res.Content
	switch c.Kind {
	case document.KindText:
		return c.Text, nil
	case document.KindJSON:
		return c.JSON, nil
	case document.KindCode:
		return strings.TrimSpace(c.Source), nil
	case document.KindExpressions:
		if res.Err != nil {
			return nil, res.Err
		}
		if len(c.Lines) != 1 || len(c.Lines[0]) != 1 || !literalToken(c.Lines[0][0]) {
			return nil, expression.ErrCannotConvertToJSON
		}
		return expression.ToJSON(res.Value)
	case document.KindList:
		out := make([]any, 0, len(res.Items))
		for _, item := range res.Items {
			j, err := ContentJSON(item)
			if err != nil {
				continue
			}
			out = append(out, j)
		}
		return out, nil
	case document.KindReference:
		return expression.ToJSON(res.Value)
	}
	return nil, expression.ErrCannotConvertToJSON
}

func literalToken(t expression.Token) bool {
	switch t.Kind {
	case expression.TokenNumber, expression.TokenBool, expression.TokenURL:
		return true
	}
	return false
}

// JSON projects the resolved document as a generic tree for transport to the
// rendering collaborator.
func (d *Document) JSON() map[string]any {
	return map[string]any{
		"title":    d.Title,
		"intro":    resultsJSON(d.Intro),
		"sections": sectionsJSON(d.Sections),
		"rpcs":     requestIDs(d),
	}
}

func sectionsJSON(sections []Section) []any {
	out := make([]any, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		ids := make([]string, 0, len(sec.Requests))
		for _, req := range sec.Requests {
			ids = append(ids, req.ID)
		}
		out = append(out, map[string]any{
			"title":    sec.Title,
			"content":  resultsJSON(sec.Content),
			"rpcs":     ids,
			"sections": sectionsJSON(sec.Sections),
		})
	}
	return out
}

func resultsJSON(results []Result) []any {
	out := make([]any, 0, len(results))
	for _, res := range results {
		out = append(out, resultJSON(res))
	}
	return out
}

func resultJSON(res Result) map[string]any {
	m := map[string]any{"kind": res.Content.Kind.String()}
	switch {
	case res.Err != nil:
		m["error"] = res.Err.Error()
	case res.Quote != nil:
		m["document"] = res.Quote.JSON()
	case res.Content.Kind == document.KindList:
		items := make([]any, 0, len(res.Items))
		for _, item := range res.Items {
			// A failed item is omitted from the flattened projection; its
			// error stays in the raw resolved tree.
			if item.Err != nil {
				continue
			}
			items = append(items, resultJSON(item))
		}
		m["items"] = items
	default:
		if j, err := expression.ToJSON(res.Value); err == nil {
			m["value"] = j
		}
	}
	return m
}

func requestIDs(d *Document) []string {
	ids := make([]string, 0, len(d.Requests))
	for _, req := range d.Requests {
		ids = append(ids, req.ID)
	}
	return ids
}
