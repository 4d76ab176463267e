package present

import (
	"io"

	"github.com/mithrel/docgen/internal/present/format"
	"github.com/mithrel/docgen/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeMarkdown
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	Width      int
	Renderer   format.TerminalRenderer
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "markdown".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "markdown", "md":
		return ModeMarkdown, true
	default:
		return ModePlain, false
	}
}

// RenderStatus renders the section status listing.
func RenderStatus(w io.Writer, rows []format.SectionRow, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, rows, opts.JSONIndent)
	default:
		return format.WritePlainStatus(w, rows, opts.Headers)
	}
}

// RenderExport renders the exported document.
func RenderExport(w io.Writer, exp api.Export, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, exp, opts.JSONIndent)
	case ModePretty:
		if opts.Renderer != nil {
			return format.WritePretty(w, exp.Markdown, opts.Renderer, opts.Width)
		}
		return format.WriteMarkdown(w, exp.Markdown)
	default:
		return format.WriteMarkdown(w, exp.Markdown)
	}
}

// RenderDrafts renders the local journal listing.
func RenderDrafts(w io.Writer, drafts []api.Draft, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, drafts, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDrafts(w, drafts)
	default:
		return format.WritePlainDrafts(w, drafts, opts.Headers)
	}
}

// RenderDraft renders one journal record.
func RenderDraft(w io.Writer, d api.Draft, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSON(w, d, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDrafts(w, []api.Draft{d})
	default:
		return format.WritePlainDraft(w, d)
	}
}
