package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/crucible/iox"
	"github.com/pithecene-io/crucible/types"
)

// StoreOpener returns the lode store factory for a repository root.
type StoreOpener func(root string) lode.StoreFactory

// StoreInstaller places artifact files at their Layout path inside a
// lode Store rooted at the repository directory.
type StoreInstaller struct {
	open StoreOpener
}

// NewStoreInstaller creates an installer writing to the local filesystem.
func NewStoreInstaller() *StoreInstaller {
	return NewStoreInstallerWithOpener(func(root string) lode.StoreFactory {
		return lode.NewFSFactory(root)
	})
}

// NewStoreInstallerWithOpener creates an installer with a custom store opener.
// Use a lode memory store for testing.
func NewStoreInstallerWithOpener(open StoreOpener) *StoreInstaller {
	return &StoreInstaller{open: open}
}

// Install copies the artifact's backing file into the store.
// An object already present at the same path is replaced, so installing
// the same artifact twice leaves the repository unchanged.
func (s *StoreInstaller) Install(ctx context.Context, repo string, a *types.Artifact) error {
	store, err := s.open(repo)()
	if err != nil {
		return fmt.Errorf("open repository %s: %w", repo, err)
	}

	f, err := os.Open(a.File)
	if err != nil {
		return fmt.Errorf("open backing file: %w", err)
	}
	defer iox.DiscardClose(f)

	key := Layout(a)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if exists {
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("replace %s: %w", key, err)
		}
	}

	if err := store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Verify StoreInstaller implements Installer.
var _ Installer = (*StoreInstaller)(nil)
