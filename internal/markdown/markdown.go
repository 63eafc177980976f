// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders post bodies with goldmark and derives the plain
// text excerpts used for previews and share descriptions.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ExcerptLength is the default excerpt size in runes.
const ExcerptLength = 160

// md is shared by every call. Raw HTML is not passed through: post bodies
// are written by members, so goldmark's default escaping stays on.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// plain parses excerpts without the typographer, whose smart quotes would
// surface as HTML entities in plain text.
var plain = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt returns the first max runes of the document's plain text, with
// Markdown syntax removed and whitespace collapsed. An ellipsis is appended
// when the text was cut.
func Excerpt(source string, max int) string {
	src := []byte(source)
	doc := plain.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				sb.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.FieldsFunc(sb.String(), unicode.IsSpace), " ")
	r := []rune(plain)
	if max <= 0 || len(r) <= max {
		return plain
	}
	cut := strings.TrimRightFunc(string(r[:max]), unicode.IsSpace)
	return cut + "…"
}
