package document

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/RoyalIcing/datadown-preview/internal/expression"
)

type frontmatter struct {
	Title string `yaml:"title"`
}

// Parse builds a Document from source text. Parsing never fails: malformed
// blocks are captured as data inside the relevant node.
func Parse(source string) *Document {
	meta, body := splitFrontmatter(source)

	src := []byte(body)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := parseBlocks(root.FirstChild(), src)
	if meta.Title != "" {
		doc.Title = meta.Title
	}
	return doc
}

// splitFrontmatter peels an optional leading YAML block fenced by --- lines.
// A fence that does not close, or YAML that does not parse, is left in place
// as document body.
func splitFrontmatter(source string) (frontmatter, string) {
	var meta frontmatter
	if !strings.HasPrefix(source, "---\n") && source != "---" {
		return meta, source
	}
	rest := source[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, source
	}
	block := rest[:end]
	body := rest[end+4:]
	body = strings.TrimPrefix(body, "\n")
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return frontmatter{}, source
	}
	return meta, body
}

// parseBlocks walks a sibling chain of block nodes into a Document. Heading
// depth drives section nesting; a level-1 heading supplies the title.
func parseBlocks(first ast.Node, src []byte) *Document {
	doc := &Document{}

	type frame struct {
		section *Section
		level   int
	}
	var stack []frame

	appendContent := func(c Content) {
		if len(stack) == 0 {
			doc.Intro = append(doc.Intro, c)
			return
		}
		top := stack[len(stack)-1].section
		top.Content = append(top.Content, c)
	}

	for n := first; n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := string(h.Text(src))
			if h.Level == 1 && doc.Title == "" && len(stack) == 0 {
				doc.Title = title
				continue
			}
			level := h.Level
			if level < 2 {
				level = 2
			}
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			sec := Section{Title: title}
			if len(stack) == 0 {
				doc.Sections = append(doc.Sections, sec)
				stack = append(stack, frame{&doc.Sections[len(doc.Sections)-1], level})
			} else {
				parent := stack[len(stack)-1].section
				parent.Sections = append(parent.Sections, sec)
				stack = append(stack, frame{&parent.Sections[len(parent.Sections)-1], level})
			}
			continue
		}
		for _, c := range parseBlock(n, src) {
			appendContent(c)
		}
	}
	return doc
}

// parseBlock converts one non-heading block node into content.
func parseBlock(n ast.Node, src []byte) []Content {
	switch n := n.(type) {
	case *ast.FencedCodeBlock:
		return []Content{parseFenced(n, src)}
	case *ast.CodeBlock:
		return []Content{{Kind: KindCode, Source: blockLines(n, src)}}
	case *ast.List:
		return []Content{parseList(n, src)}
	case *ast.Blockquote:
		return []Content{{Kind: KindQuote, Quote: parseBlocks(n.FirstChild(), src)}}
	case *ast.Paragraph:
		return []Content{parseParagraph(n, src)}
	case *ast.TextBlock:
		return []Content{parseTextLines(nodeLines(n, src))}
	default:
		if t := strings.TrimSpace(blockLines(n, src)); t != "" {
			return []Content{{Kind: KindText, Text: t}}
		}
		return nil
	}
}

func parseFenced(n *ast.FencedCodeBlock, src []byte) Content {
	lang := string(n.Language(src))
	source := blockLines(n, src)
	if lang == "json" {
		var v any
		if err := json.Unmarshal([]byte(source), &v); err == nil {
			return Content{Kind: KindJSON, JSON: v}
		}
	}
	// graphql and everything else stays Code at this layer; the resolver
	// specializes graphql blocks into remote-call descriptors.
	return Content{Kind: KindCode, Lang: lang, Source: source}
}

func parseList(n *ast.List, src []byte) Content {
	var items []ListItem
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		child := item.FirstChild()
		if child == nil {
			continue
		}
		if link, ok := soleLink(child); ok {
			items = append(items, ListItem{Content: referenceContent(link, src)})
			continue
		}
		line := firstLine(child, src)
		line, qualifier := splitQualifier(line)
		items = append(items, ListItem{
			Content:   parseLine(line),
			Qualifier: qualifier,
		})
	}
	return Content{Kind: KindList, Items: items}
}

// splitQualifier peels a trailing " #word" marker off a list item line.
func splitQualifier(line string) (string, string) {
	i := strings.LastIndex(line, " #")
	if i < 0 {
		return line, ""
	}
	qualifier := line[i+2:]
	if qualifier == "" || strings.ContainsAny(qualifier, " \t") {
		return line, ""
	}
	return strings.TrimSpace(line[:i]), qualifier
}

func parseParagraph(n *ast.Paragraph, src []byte) Content {
	if link, ok := soleLink(n); ok {
		return referenceContent(link, src)
	}
	return parseTextLines(nodeLines(n, src))
}

// soleLink reports whether a block's only child is a link node.
func soleLink(n ast.Node) (*ast.Link, bool) {
	child := n.FirstChild()
	if child == nil || child.NextSibling() != nil {
		return nil, false
	}
	link, ok := child.(*ast.Link)
	return link, ok
}

func referenceContent(link *ast.Link, src []byte) Content {
	path := strings.TrimSpace(string(link.Text(src)))
	id, keyPath, _ := strings.Cut(path, ".")
	dest := strings.TrimSpace(string(link.Destination))
	raw := ""
	if strings.HasPrefix(dest, "{") || strings.HasPrefix(dest, "[") {
		raw = dest
	}
	return Content{Kind: KindReference, Ref: &Reference{
		ID:      id,
		KeyPath: keyPath,
		RawJSON: raw,
	}}
}

// parseTextLines classifies a run of plain lines: a bare JSON literal, an
// expression block, or text. A block commits to being expressions once its
// first line tokenizes fully; a later line's failure is then a real
// expression error, preserved as data rather than discarded. A first line
// that fails anywhere is prose.
func parseTextLines(lines []string) Content {
	if len(lines) == 1 {
		if c, ok := tryJSONLine(lines[0]); ok {
			return c
		}
	}
	var tokenLines [][]expression.Token
	for i, line := range lines {
		tokens, err := expression.Tokenize(line)
		if err != nil {
			if i == 0 {
				return Content{Kind: KindText, Text: strings.Join(lines, "\n")}
			}
			return Content{Kind: KindExpressions, Lines: tokenLines, SynErr: err.(*expression.SyntaxError)}
		}
		tokenLines = append(tokenLines, tokens)
	}
	return Content{Kind: KindExpressions, Lines: tokenLines}
}

// parseLine classifies a single line (used for list items).
func parseLine(line string) Content {
	return parseTextLines([]string{strings.TrimSpace(line)})
}

func tryJSONLine(line string) (Content, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return Content{}, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return Content{}, false
	}
	return Content{Kind: KindJSON, JSON: v}, true
}

// nodeLines returns a block node's source lines, trimmed of trailing
// whitespace.
func nodeLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	lines := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		lines = append(lines, strings.TrimRight(string(seg.Value(src)), " \t\n"))
	}
	return lines
}

// blockLines returns a block node's raw source text.
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// firstLine returns the first source line of a block node.
func firstLine(n ast.Node, src []byte) string {
	lines := nodeLines(n, src)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
