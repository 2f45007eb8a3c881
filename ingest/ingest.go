// Package ingest resolves user file and folder selections into upload
// entries with destination object keys.
//
// A directly picked file keeps its bare name at the bucket root. A picked
// folder contributes every file beneath it, keyed by the file's path
// relative to the picked folder with forward slashes; the picked folder's
// own name never appears in a key. Folder listings arrive in pages, and a
// folder's listing is fully drained before any of its subfolders are
// descended into.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

// MaxKeyLength is the longest destination key the store accepts, in bytes.
const MaxKeyLength = 1024

// Source is one user selection to upload, either a File or a Dir.
type Source interface {
	// Name returns the selection's base name.
	Name() string
}

// File is a selected file.
type File interface {
	Source

	// Path returns the local path used to open the file at upload time.
	Path() string

	// Size returns the file length in bytes.
	Size() int64
}

// Dir is a selected folder whose entries are listed in pages.
type Dir interface {
	Source

	// HasMorePages reports whether NextPage has entries left to return.
	HasMorePages() bool

	// NextPage returns the next batch of entries.
	NextPage(ctx context.Context) (*Page, error)
}

// Page is one batch of directory entries.
type Page struct {
	// Files holds the file entries in this batch
	Files []File

	// Dirs holds the subfolder entries in this batch
	Dirs []Dir
}

// Resolve flattens sources into upload entries in listing order. Files
// picked directly come first, in the order given; each folder's files
// follow, parents before children. Sibling subfolders are resolved
// concurrently but their results are joined back in listing order, so
// the output is deterministic for a given tree.
func Resolve(ctx context.Context, sources ...Source) ([]uploadtypes.FileUpload, error) {
	out := make([]uploadtypes.FileUpload, 0, len(sources))
	for _, src := range sources {
		switch s := src.(type) {
		case File:
			entry, err := fileEntry(s, "")
			if err != nil {
				return nil, err
			}
			out = append(out, entry)
		case Dir:
			entries, err := resolveDir(ctx, s, "")
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		default:
			return nil, errors.NewError("resolve", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("unsupported source type %T", src))
		}
	}
	return out, nil
}

// resolveDir lists one folder to exhaustion, emits its files under prefix,
// then fans out into its subfolders.
func resolveDir(ctx context.Context, dir Dir, prefix string) ([]uploadtypes.FileUpload, error) {
	var files []File
	var dirs []Dir
	for dir.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := dir.NextPage(ctx)
		if err != nil {
			return nil, errors.NewError("resolve", err).WithKey(joinKey(prefix, dir.Name()))
		}
		files = append(files, page.Files...)
		dirs = append(dirs, page.Dirs...)
	}

	out := make([]uploadtypes.FileUpload, 0, len(files))
	for _, f := range files {
		entry, err := fileEntry(f, prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}

	// Indexed result slots keep listing order while siblings resolve
	// concurrently.
	results := make([][]uploadtypes.FileUpload, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range dirs {
		g.Go(func() error {
			entries, err := resolveDir(gctx, sub, joinKey(prefix, sub.Name()))
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, entries := range results {
		out = append(out, entries...)
	}
	return out, nil
}

// fileEntry builds the upload entry for one file under the given key prefix.
func fileEntry(f File, prefix string) (uploadtypes.FileUpload, error) {
	key := joinKey(prefix, f.Name())
	if err := ValidateKey(key); err != nil {
		return uploadtypes.FileUpload{}, err
	}
	return uploadtypes.FileUpload{
		File: uploadtypes.LocalFile{Path: f.Path(), Size: f.Size()},
		Key:  key,
	}, nil
}

// joinKey joins key segments with forward slashes regardless of the local
// filesystem separator.
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ValidateKey validates that a destination key is acceptable to the store.
// This includes preventing path traversal sequences and control characters.
func ValidateKey(key string) error {
	if key == "" {
		return errors.NewError("validateKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}

	if len(key) > MaxKeyLength {
		return errors.NewError("validateKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(fmt.Sprintf("object key cannot exceed %d characters", MaxKeyLength))
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "" {
			return errors.NewError("validateKey", errors.ErrInvalidObjectKey).
				WithKey(key).
				WithMessage("object key cannot contain empty path segments")
		}
		if segment == "." || segment == ".." {
			return errors.NewError("validateKey", errors.ErrInvalidObjectKey).
				WithKey(key).
				WithMessage("object key cannot contain path traversal sequences")
		}
	}

	if hasControlCharacters(key) {
		return errors.NewError("validateKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage("object key cannot contain control characters")
	}

	return nil
}

// hasControlCharacters checks for control characters in the key.
func hasControlCharacters(key string) bool {
	for _, char := range key {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
