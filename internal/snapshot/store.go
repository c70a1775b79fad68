// Package snapshot persists converted books as self-contained directories
// and loads them back. A snapshot directory holds one book.json plus an
// images/ directory for EPUB-extracted binaries.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shiomura/bookroom/internal/book"
)

// SnapshotFile is the serialized Book inside a snapshot directory.
const SnapshotFile = "book.json"

// DirSuffix marks snapshot directories; existence of a matching directory
// with a snapshot file is what makes a library entry.
const DirSuffix = "_data"

var (
	ErrAlreadyExists   = errors.New("snapshot already exists")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Save writes b and its image assets into dir. The write is all-or-nothing:
// everything is staged into a temporary sibling directory which is renamed
// into place only once complete. An existing dir fails with
// ErrAlreadyExists unless overwrite is set, in which case it is replaced
// wholesale.
func Save(b *book.Book, assets []book.ImageAsset, dir string, overwrite bool) error {
	if _, err := os.Stat(dir); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, dir)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	staging := dir + ".tmp"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, SnapshotFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", SnapshotFile, err)
	}

	if len(assets) > 0 {
		imagesDir := filepath.Join(staging, "images")
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return fmt.Errorf("create images dir: %w", err)
		}
		for _, a := range assets {
			if err := os.WriteFile(filepath.Join(imagesDir, a.Name), a.Data, 0o644); err != nil {
				return fmt.Errorf("write image %s: %w", a.Name, err)
			}
		}
	}

	if overwrite {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove previous snapshot: %w", err)
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot in dir back into a Book. Any failure to read or
// decode the snapshot file, including a format version mismatch from an
// incompatible prior version, is reported as ErrCorruptSnapshot.
func Load(dir string) (*book.Book, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	var b book.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if b.Version != book.FormatVersion {
		return nil, fmt.Errorf("%w: format version %q, expected %q", ErrCorruptSnapshot, b.Version, book.FormatVersion)
	}
	return &b, nil
}

// Scan lists the snapshot directories directly under root, sorted by name.
// A qualifying entry is a directory named "*_data" containing a snapshot
// file; integrity is not validated here, only on Load.
func Scan(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan library root: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), DirSuffix) {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), SnapshotFile)); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	return ids, nil
}
