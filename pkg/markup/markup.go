// Package markup turns user-supplied text into something safe to display.
//
// Product descriptions are written in Markdown by the admin and rendered to
// sanitised HTML; chat messages are plain text with every tag stripped.
package markup

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// RenderMarkdown converts src to HTML and sanitises the result.
func RenderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}
	return ugc.Sanitize(buf.String())
}

// PlainText strips every tag from s and trims it. Entities produced by the
// sanitiser are decoded back so "é" or "&" round-trip unchanged.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Preview shortens s to at most n runes, appending "..." when cut.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
