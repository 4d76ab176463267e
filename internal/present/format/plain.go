package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/docgen/pkg/api"
)

// SectionRow is one line of the section status listing.
type SectionRow struct {
	Section  string    `json:"section"`
	Title    string    `json:"title"`
	Complete bool      `json:"complete"`
	Known    bool      `json:"known"`
	SavedAt  time.Time `json:"saved_at"`
}

// TSV columns: section, title, status, saved
var statusHeader = "section\ttitle\tstatus\tsaved\n"

// TSV columns: section, fields, fingerprint, saved
var draftHeader = "section\tfields\tfingerprint\tsaved\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func mark(r SectionRow) string {
	switch {
	case !r.Known:
		return "-"
	case r.Complete:
		return "✓"
	default:
		return "○"
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func WritePlainStatus(w io.Writer, rows []SectionRow, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, statusHeader)
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", esc(r.Section), esc(r.Title), mark(r), stamp(r.SavedAt))
	}
	return tw.Flush()
}

func WritePlainDrafts(w io.Writer, drafts []api.Draft, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, draftHeader)
	}
	for _, d := range drafts {
		fp := d.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", esc(d.Section), len(d.Fields), fp, stamp(d.SavedAt))
	}
	return tw.Flush()
}

// WritePlainDraft prints one field per line; multi-line values are escaped.
func WritePlainDraft(w io.Writer, d api.Draft) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range d.Fields {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", esc(f.Name), esc(f.Value))
	}
	return tw.Flush()
}
