// Package render turns collaborator markdown into terminal output and
// decorated HTML for the live preview.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultStyle is the glamour style used when a theme has no mapping.
const DefaultStyle = styles.DraculaStyle

// DefaultWidth is the word wrap used for terminal output.
const DefaultWidth = 80

var themeStyles = map[string]string{
	"dark":       styles.DarkStyle,
	"light":      styles.LightStyle,
	"corporate":  styles.LightStyle,
	"cyberpunk":  styles.TokyoNightStyle,
	"neon":       styles.PinkStyle,
	"retro":      styles.AsciiStyle,
	"minimalist": styles.NoTTYStyle,
}

// StyleForTheme maps an editor theme to a glamour style. Themes without
// their own look (default, custom) use fallback.
func StyleForTheme(theme, fallback string) string {
	if s, ok := themeStyles[theme]; ok {
		return s
	}
	if fallback == "" {
		return DefaultStyle
	}
	return fallback
}

// Renderer renders markdown for one style. It is safe for concurrent use.
type Renderer struct {
	style string

	mu    sync.Mutex
	terms map[int]*glamour.TermRenderer
	md    goldmark.Markdown
}

// New returns a renderer using a glamour style name.
func New(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{
		style: style,
		terms: make(map[int]*glamour.TermRenderer),
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Style returns the glamour style in use.
func (r *Renderer) Style() string { return r.style }

func (r *Renderer) term(width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr, ok := r.terms[width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("glamour renderer: %w", err)
	}
	r.terms[width] = tr
	return tr, nil
}

// Terminal renders markdown for a terminal of the given width.
func (r *Renderer) Terminal(markdown string, width int) (string, error) {
	tr, err := r.term(width)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := tr.Render(DecorateMarkdown(markdown))
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// HTML renders markdown to a decorated HTML fragment.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return Decorate(buf.String())
}

var (
	badgePattern   = regexp.MustCompile(`\[badge:([\w-]+)\]`)
	mentionPattern = regexp.MustCompile(`(^|[^\w@/\[\x60])@([A-Za-z0-9_-]+)`)
	fencePattern   = regexp.MustCompile("^\\s*(```|~~~)")
)

// DecorateMarkdown applies the text decorations a terminal can show:
// pseudo-badges become inline code and mentions become profile links.
// Fenced code blocks are left alone.
func DecorateMarkdown(markdown string) string {
	lines := strings.Split(markdown, "\n")
	inFence := false
	for i, line := range lines {
		if fencePattern.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		line = badgePattern.ReplaceAllString(line, "`$1`")
		line = mentionPattern.ReplaceAllString(line, "$1[@$2](https://github.com/$2)")
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// KnownStyle reports whether name is a built-in glamour style.
func KnownStyle(name string) bool {
	if name == styles.AutoStyle {
		return true
	}
	_, ok := styles.DefaultStyles[name]
	return ok
}
