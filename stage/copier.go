// Package stage copies sample projects into the workspace, substituting
// ${{key}} placeholders in every regular file.
//
// Copies are fail-fast, not transactional: the first failing entry aborts
// the copy and whatever was written so far stays on disk.
package stage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pithecene-io/crucible/iox"
	"github.com/pithecene-io/crucible/log"
	"github.com/pithecene-io/crucible/metrics"
	"github.com/pithecene-io/crucible/types"
)

// dirPerm is used for every destination directory.
const dirPerm = 0o755

// Copier copies directory trees with placeholder substitution.
type Copier struct {
	logger    *log.Logger
	collector *metrics.Collector
}

// NewCopier creates a Copier. A nil logger discards output and a nil
// collector disables counting.
func NewCopier(logger *log.Logger, collector *metrics.Collector) *Copier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Copier{logger: logger, collector: collector}
}

// Copy copies src recursively to destParent/<base(src)>, substituting
// placeholders in regular files, and returns the destination root.
//
// Symlinks are never followed: a link is neither a directory nor a
// regular file and is skipped. Existing directories are reused and
// existing files overwritten.
func (c *Copier) Copy(src, destParent string, params map[string]string) (string, error) {
	root := filepath.Join(destParent, filepath.Base(src))

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return types.WrapIO(err, "walk", path)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return types.WrapIO(err, "walk", path)
		}
		dest := filepath.Join(root, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(dest, dirPerm); err != nil {
				return types.WrapIO(err, "mkdir", dest)
			}
			c.collector.IncDirectoryCreated()
		case d.Type().IsRegular():
			if err := c.filter(path, dest, params); err != nil {
				return err
			}
			c.collector.IncFileCopied()
		default:
			c.logger.Debug("skipping irregular entry", map[string]any{
				"path": path,
				"mode": d.Type().String(),
			})
			c.collector.IncEntrySkipped()
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return root, nil
}

// filter writes src to dest with placeholders substituted, keeping the
// source permission bits so wrapper scripts stay executable.
func (c *Copier) filter(src, dest string, params map[string]string) error {
	info, err := os.Stat(src)
	if err != nil {
		return types.WrapIO(err, "stat", src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return types.WrapIO(err, "read", src)
	}

	if err := writeFile(dest, Substitute(string(data), params), info.Mode().Perm()); err != nil {
		return types.WrapIO(err, "write", dest)
	}
	return nil
}

// writeFile truncates or creates dest and sets perm exactly, regardless
// of umask or an existing file's mode.
func writeFile(dest, text string, perm os.FileMode) (err error) {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer iox.CloseInto(f, &err)

	if _, err := f.WriteString(text); err != nil {
		return err
	}
	return f.Chmod(perm)
}
