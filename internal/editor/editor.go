// Package editor composes section drafts for an external $EDITOR session
// and parses them back into form snapshots.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/models"
)

// FieldMarker starts a field block in a draft.
const FieldMarker = "@@ "

// Compose renders the draft presented to the editor for a section.
func Compose(sec models.Section, v *form.Values) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# docgen section: %s (%s)\n", sec.ID, sec.Title)
	b.WriteString("# Lines starting with '#' before the first field are ignored.\n")
	b.WriteString("# Each field starts with '@@ <field>'; the lines below it are its value.\n")
	b.WriteString("# Checkbox fields take one option per line. Tags are comma-separated.\n")
	for _, f := range sec.Fields {
		switch {
		case f.Kind == models.KindFile:
			fmt.Fprintf(&b, "# %s: upload with 'docgen upload <path>'\n", f.ID)
		case f.Kind.HasOptions():
			fmt.Fprintf(&b, "# %s options: %s\n", f.ID, strings.Join(f.Options, " | "))
		}
	}
	for _, f := range sec.Fields {
		if f.Kind == models.KindFile {
			continue
		}
		b.WriteString("\n")
		b.WriteString(FieldMarker)
		b.WriteString(f.ID)
		b.WriteString("\n")
		var value string
		if f.Kind == models.KindCheckbox {
			var checked []string
			for _, opt := range f.Options {
				if v.Checked(f.ID, opt) {
					checked = append(checked, opt)
				}
			}
			value = strings.Join(checked, "\n")
		} else {
			value = v.Get(f.ID)
		}
		if value != "" {
			b.WriteString(escape(value))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func escape(value string) string {
	lines := strings.Split(value, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "@@") || strings.HasPrefix(l, `\@@`) {
			lines[i] = `\` + l
		}
	}
	return strings.Join(lines, "\n")
}

func unescape(line string) string {
	if strings.HasPrefix(line, `\@@`) || strings.HasPrefix(line, `\\@@`) {
		return line[1:]
	}
	return line
}

// Parse reads a draft back into a snapshot of sec. Unknown fields and
// options are reported together; fields missing from the draft are empty.
func Parse(sec models.Section, content string) (form.Snapshot, error) {
	blocks := map[string][]string{}
	var order []string
	var current string
	var errs []error
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, FieldMarker) || line == strings.TrimSpace(FieldMarker) {
			current = strings.TrimSpace(strings.TrimPrefix(line, strings.TrimSpace(FieldMarker)))
			if _, seen := blocks[current]; seen {
				errs = append(errs, fmt.Errorf("field %q appears twice", current))
			}
			blocks[current] = nil
			order = append(order, current)
			continue
		}
		if current == "" {
			// header: comments and stray lines before the first field
			continue
		}
		blocks[current] = append(blocks[current], unescape(line))
	}

	v := form.New(sec)
	for _, id := range order {
		f, ok := sec.Field(id)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown field %q", id))
			continue
		}
		value := blockValue(blocks[id])
		switch {
		case f.Kind == models.KindFile:
			errs = append(errs, fmt.Errorf("field %q is a file upload", id))
		case f.Kind == models.KindCheckbox:
			for _, opt := range strings.Split(value, "\n") {
				opt = strings.TrimSpace(opt)
				if opt == "" || v.Checked(id, opt) {
					continue
				}
				if !v.Toggle(id, opt) {
					errs = append(errs, fmt.Errorf("field %q: unknown option %q", id, opt))
				}
			}
		case f.Kind.HasOptions():
			value = strings.TrimSpace(value)
			if value != "" && !contains(f.Options, value) {
				errs = append(errs, fmt.Errorf("field %q: unknown option %q", id, value))
				continue
			}
			v.Set(id, value)
		default:
			v.Set(id, value)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return form.Snapshot{}, err
	}
	return v.Snapshot(), nil
}

func blockValue(lines []string) string {
	s := strings.Join(lines, "\n")
	s = strings.TrimLeft(s, "\n")
	return strings.TrimRight(s, " \t\n")
}

func contains(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// PathForSection returns the draft file path for a section.
func PathForSection(section string) (string, error) {
	name := sanitize(section) + ".docgen.md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "docgen", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "docgen", "edit", name), nil
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func ensureDirSecure(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}

func writeFile0600(path string, data []byte) error {
	if err := ensureDirSecure(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, fs.FileMode(0o600))
}

// Command builds the editor process for path, honoring flags in
// $VISUAL or $EDITOR by running through a shell.
func Command(path string) (*exec.Cmd, error) {
	ed := os.Getenv("VISUAL")
	if ed == "" {
		ed = os.Getenv("EDITOR")
	}
	if strings.TrimSpace(ed) != "" {
		cmd := exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
		cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
		return cmd, nil
	}
	prog, err := PreferredEditor()
	if err != nil {
		return nil, err
	}
	return exec.Command(prog, path), nil
}

// PrepareAt writes the initial content to the given path with secure perms.
func PrepareAt(path string, initial []byte) error {
	return writeFile0600(path, initial)
}
