package markdown

import (
	"bytes"
	"strings"
	"testing"
)

func render(md string) string {
	var buf bytes.Buffer
	Render(&buf, md)
	return buf.String()
}

func TestFormatInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"an _italic_ word", "an <em>italic</em> word"},
		{"snake_case_name stays", "snake_case_name stays"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"use `**raw**` here", "use <code>**raw**</code> here"},
		{"<script>", "&lt;script&gt;"},
		{"a & b", "a &amp; b"},
	}
	for _, tt := range tests {
		if got := FormatInline(tt.input); got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineLinks(t *testing.T) {
	got := FormatInline("see [the source](https://example.com/a_b_c)")
	want := `see <a href="https://example.com/a_b_c" target="_blank" rel="noopener noreferrer">the source</a>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := FormatInline("[click](javascript:alert(1))"); strings.Contains(got, "href") {
		t.Errorf("javascript link should be dropped, got %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/x?a=1&b=2", "https://example.com/x?a=1&amp;b=2"},
		{"http://example.com", "http://example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html;base64,xx", ""},
		{"/relative", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderParagraphs(t *testing.T) {
	got := render("First line\nsecond line\n\nNew paragraph")
	want := "<p>First line<br/>second line</p><p>New paragraph</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderLists(t *testing.T) {
	got := render("Objects:\n- a cat\n- a *red* ball\n\n1. first\n2) second")
	want := "<p>Objects:</p><ul><li>a cat</li><li>a <em>red</em> ball</li></ul><ol><li>first</li><li>second</li></ol>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderHeadingsStartAtH3(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"# Title", "<h3>Title</h3>"},
		{"## Scene", "<h3>Scene</h3>"},
		{"#### Detail", "<h4>Detail</h4>"},
		{"####### Seven", "<p>####### Seven</p>"},
	}
	for _, tt := range tests {
		if got := render(tt.input); got != tt.want {
			t.Errorf("render(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderQuoteAndRule(t *testing.T) {
	got := render("> one\n> two\n---\nafter")
	want := "<blockquote>one<br/>two</blockquote><hr/><p>after</p>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	got := render("<img src=x onerror=alert(1)>")
	if strings.Contains(got, "<img") {
		t.Errorf("raw html leaked: %q", got)
	}
}

func TestHTMLMatchesRender(t *testing.T) {
	if got := string(HTML("**hi**")); got != "<p><strong>hi</strong></p>" {
		t.Errorf("got %q", got)
	}
}

func TestFormatInlineCodeInsideLink(t *testing.T) {
	got := FormatInline("see [`main.go`](https://example.com) now")
	want := `see <a href="https://example.com" target="_blank" rel="noopener noreferrer"><code>main.go</code></a> now`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Contains(got, "\x00") {
		t.Errorf("placeholder leaked: %q", got)
	}
}
