// Package markdown renders model-written descriptions as safe HTML.
//
// Completion models answer in a light Markdown dialect: headings, paragraphs,
// bullet and numbered lists, quotes, rules and inline emphasis. Everything else is
// escaped and shown as text.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnder  = regexp.MustCompile(`__(.+?)__`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUndr = regexp.MustCompile(`(^|\s)_([^_]+)_`)
	reCode       = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	reNumbered   = regexp.MustCompile(`^\d+[.)]\s+`)
	reBullet     = regexp.MustCompile(`^[-*+]\s+`)
	reHeading    = regexp.MustCompile(`^(#{1,6})\s+`)
)

// block is the kind of element currently open in the output.
type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockNumbered
	blockQuote
)

var closeTags = map[block]string{
	blockPara:     "</p>",
	blockList:     "</ul>",
	blockNumbered: "</ol>",
	blockQuote:    "</blockquote>",
}

type renderer struct {
	buf  *bytes.Buffer
	open block
}

func (r *renderer) close() {
	if tag, ok := closeTags[r.open]; ok {
		r.buf.WriteString(tag)
	}
	r.open = blockNone
}

// enter opens b unless it is already open, reporting whether it was already open.
func (r *renderer) enter(b block, tag string) bool {
	if r.open == b {
		return true
	}
	r.close()
	r.buf.WriteString(tag)
	r.open = b
	return false
}

// HTML renders md for use inside html/template.
func HTML(md string) template.HTML {
	var buf bytes.Buffer
	Render(&buf, md)
	return template.HTML(buf.String())
}

// Render writes the HTML form of md to buf.
func Render(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf}
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		switch {
		case line == "":
			r.close()
		case line == "---" || line == "***":
			r.close()
			buf.WriteString("<hr/>")
		case reHeading.MatchString(line):
			r.close()
			level := len(reHeading.FindStringSubmatch(line)[1])
			// Descriptions sit under the page title, so headings start at h3.
			if level < 3 {
				level = 3
			}
			tag := "h" + strconv.Itoa(min(level, 6))
			buf.WriteString("<" + tag + ">")
			buf.WriteString(FormatInline(reHeading.ReplaceAllString(line, "")))
			buf.WriteString("</" + tag + ">")
		case reBullet.MatchString(line):
			r.enter(blockList, "<ul>")
			buf.WriteString("<li>" + FormatInline(reBullet.ReplaceAllString(line, "")) + "</li>")
		case reNumbered.MatchString(line):
			r.enter(blockNumbered, "<ol>")
			buf.WriteString("<li>" + FormatInline(reNumbered.ReplaceAllString(line, "")) + "</li>")
		case strings.HasPrefix(line, ">"):
			if r.enter(blockQuote, "<blockquote>") {
				buf.WriteString("<br/>")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(line[1:])))
		default:
			if r.enter(blockPara, "<p>") {
				buf.WriteString("<br/>")
			}
			buf.WriteString(FormatInline(line))
		}
	}
	r.close()
}

// FormatInline escapes s and applies links, inline code, bold and italic.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)

	// Code spans and links become placeholders so emphasis never rewrites them.
	var held []string
	hold := func(fragment string) string {
		held = append(held, fragment)
		return "\x00" + strconv.Itoa(len(held)-1) + "\x00"
	}
	escaped = reCode.ReplaceAllStringFunc(escaped, func(m string) string {
		return hold("<code>" + reCode.FindStringSubmatch(m)[1] + "</code>")
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return hold(`<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + match[1] + `</a>`)
	})

	escaped = reBold.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = reBoldUnder.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = reItalic.ReplaceAllString(escaped, "<em>$1</em>")
	escaped = reItalicUndr.ReplaceAllString(escaped, "$1<em>$2</em>")

	// Later fragments can contain earlier placeholders (code inside link text).
	for i := len(held) - 1; i >= 0; i-- {
		escaped = strings.Replace(escaped, "\x00"+strconv.Itoa(i)+"\x00", held[i], 1)
	}
	return escaped
}

// SafeURL returns an attribute-safe form of raw, or "" for schemes other than http(s).
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return html.EscapeString(val)
	default:
		return ""
	}
}
