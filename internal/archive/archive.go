// Package archive packs a project directory for structure analysis.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes skips directories that never describe a project layout.
var DefaultExcludes = []string{
	".git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.pyc",
	".venv/**",
	"venv/**",
	"dist/**",
	"build/**",
	".idea/**",
	".vscode/**",
}

// Stats summarizes what was archived.
type Stats struct {
	Files   int
	Dirs    int
	Skipped int
	Bytes   int64
}

// Excluded reports whether the slash-separated relative path matches a pattern.
func Excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ValidatePatterns reports the first malformed exclude pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// TarGz writes dir as a gzip-compressed tar stream. Paths are stored
// relative to dir under its base name; symlinks and special files are
// skipped.
func TarGz(ctx context.Context, dir string, w io.Writer, excludes []string) (Stats, error) {
	var st Stats
	if err := ValidatePatterns(excludes); err != nil {
		return st, err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return st, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return st, err
	}
	if !info.IsDir() {
		return st, fmt.Errorf("%s is not a directory", dir)
	}
	base := filepath.Base(root)

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if Excluded(rel, excludes) {
			st.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() && !fi.IsDir() {
			st.Skipped++
			return nil
		}
		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = base + "/" + rel
		if fi.IsDir() {
			hdr.Name += "/"
			st.Dirs++
			return tw.WriteHeader(hdr)
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := io.Copy(tw, f)
		if err != nil {
			return err
		}
		st.Files++
		st.Bytes += n
		return nil
	})
	if walkErr != nil {
		return st, walkErr
	}
	if err := tw.Close(); err != nil {
		return st, err
	}
	return st, gz.Close()
}

// Open returns an upload body for path. A directory is packed on the fly
// as <name>.tar.gz; any other file is returned unchanged. The caller must
// close the body, which also stops a pack still in progress.
func Open(ctx context.Context, path string, excludes []string) (string, io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		f, err := os.Open(path)
		if err != nil {
			return "", nil, err
		}
		return filepath.Base(path), f, nil
	}
	if err := ValidatePatterns(excludes); err != nil {
		return "", nil, err
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	pr, pw := io.Pipe()
	go func() {
		_, err := TarGz(ctx, root, pw, excludes)
		pw.CloseWithError(err)
	}()
	return filepath.Base(root) + ".tar.gz", pr, nil
}
