package stage

import (
	"os"
	"path/filepath"

	"github.com/pithecene-io/crucible/types"
)

// Sample is one self-contained sample project directory.
type Sample struct {
	// Name is the leaf name of the source directory.
	Name string `json:"name" yaml:"name"`
	// Path is the source directory.
	Path string `json:"path" yaml:"path"`
}

// Discover lists the immediate sub-directories of root, sorted by name.
// Regular files and symlinks are ignored.
func Discover(root string) ([]Sample, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, types.WrapIO(err, "list", root)
	}

	// os.ReadDir returns entries sorted by filename.
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		samples = append(samples, Sample{
			Name: e.Name(),
			Path: filepath.Join(root, e.Name()),
		})
	}
	return samples, nil
}
