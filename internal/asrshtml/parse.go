// Package asrshtml extracts incident records from the ASRS database's
// printable result page.
//
// The page marks each report with <p class="acnheading">, each section with
// <p class="acnsection"> and the section body with <p class="acndata">, one
// line per <br>. Field names are taken from the page, never hard-coded.
package asrshtml

import (
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

const (
	classHeading = "acnheading"
	classSection = "acnsection"
	classData    = "acndata"

	// textKey holds a section's free-text lines, joined by newlines.
	textKey = "text"
)

// Parse reads a printable page and returns one record per acnheading, in
// document order.
//
// Within a section, "LABEL : value" lines become attributes; a repeated label
// turns into a list of its values. Other lines are free text. Data before the
// first section of a report is dropped.
func Parse(r io.Reader) ([]incident.Record, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, amerrors.IOError("cannot read HTML page", err)
	}

	records := []incident.Record{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if hasClass(n, classHeading) {
			records = append(records, parseRecord(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return records, nil
}

// parseRecord reads the heading's following <p> siblings up to the next
// heading.
func parseRecord(heading *html.Node) incident.Record {
	rec := incident.Record{}

	// "ACN: 2184152 (1 of 91)"
	if _, after, ok := strings.Cut(textOf(heading), ":"); ok {
		if fields := strings.Fields(after); len(fields) > 0 {
			rec["ACN"] = fields[0]
		}
	}

	var section map[string]any
	var free []string
	flush := func() {
		if section != nil && len(free) > 0 {
			section[textKey] = strings.Join(free, "\n")
		}
		free = nil
	}

	for sib := heading.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode || sib.Data != "p" {
			continue
		}
		if hasClass(sib, classHeading) {
			break
		}

		switch {
		case hasClass(sib, classSection):
			flush()
			section = map[string]any{}
			rec[strings.TrimRight(textOf(sib), ":")] = section
		case hasClass(sib, classData) && section != nil:
			for _, line := range dataLines(sib) {
				key, val, ok := strings.Cut(line, " : ")
				if !ok {
					free = append(free, line)
					continue
				}
				addValue(section, strings.TrimSpace(key), strings.TrimSpace(val))
			}
		}
	}
	flush()

	return rec
}

func addValue(section map[string]any, key, val string) {
	switch prev := section[key].(type) {
	case nil:
		section[key] = val
	case []any:
		section[key] = append(prev, val)
	default:
		section[key] = []any{prev, val}
	}
}

// dataLines splits an acndata paragraph at each <br> and returns the
// non-empty lines.
func dataLines(p *html.Node) []string {
	var lines, parts []string
	end := func() {
		if line := strings.Join(parts, " "); line != "" {
			lines = append(lines, line)
		}
		parts = nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && n.Data == "br":
			end()
		case n.Type == html.TextNode:
			if s := clean(n.Data); s != "" {
				parts = append(parts, s)
			}
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	end()

	return lines
}

// textOf joins the trimmed text nodes under n with single spaces.
func textOf(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := clean(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// clean drops invalid UTF-8 and surrounding whitespace.
func clean(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode || n.Data != "p" {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" && slices.Contains(strings.Fields(a.Val), class) {
			return true
		}
	}
	return false
}
