package ingest

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
)

// DefaultPageSize is the number of entries a filesystem-backed Dir returns
// per page when no size is given.
const DefaultPageSize = 100

// NewFile wraps a single local file as a Source. The file keeps its bare
// name as the destination key.
func NewFile(fsys fs.Filesystem, path string) (File, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, errors.NewError("stat", err)
	}
	if info.IsDir() {
		return nil, errors.NewError("stat", errors.ErrInvalidInput).
			WithMessage(path + " is a directory, not a file")
	}
	return &fsFile{
		path: path,
		name: info.Name(),
		size: info.Size(),
	}, nil
}

// NewDir wraps a local folder as a Source whose entries are listed
// pageSize at a time. A pageSize of zero or less uses DefaultPageSize.
func NewDir(fsys fs.Filesystem, path string, pageSize int) (Dir, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, errors.NewError("stat", err)
	}
	if !info.IsDir() {
		return nil, errors.NewError("stat", errors.ErrInvalidInput).
			WithMessage(path + " is a file, not a directory")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &fsDir{
		fsys:     fsys,
		path:     path,
		name:     info.Name(),
		pageSize: pageSize,
	}, nil
}

// FromPath stats path and wraps it as a file or folder source accordingly.
func FromPath(fsys fs.Filesystem, path string) (Source, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, errors.NewError("stat", err)
	}
	if info.IsDir() {
		return NewDir(fsys, path, DefaultPageSize)
	}
	return NewFile(fsys, path)
}

// fsFile is a File backed by a local filesystem entry.
type fsFile struct {
	path string
	name string
	size int64
}

func (f *fsFile) Name() string { return f.name }
func (f *fsFile) Path() string { return f.path }
func (f *fsFile) Size() int64  { return f.size }

// fsDir is a Dir backed by a local directory. The directory is read once
// on the first page request and served in name order, pageSize entries
// at a time.
type fsDir struct {
	fsys     fs.Filesystem
	path     string
	name     string
	pageSize int

	entries []fileInfo
	offset  int
	loaded  bool
}

// fileInfo is the slice of os.FileInfo the listing keeps per entry.
type fileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (d *fsDir) Name() string { return d.name }

// HasMorePages returns true if there are more pages to fetch.
func (d *fsDir) HasMorePages() bool {
	return !d.loaded || d.offset < len(d.entries)
}

// NextPage fetches the next page of entries.
func (d *fsDir) NextPage(ctx context.Context) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.loaded {
		infos, err := d.fsys.ReadDir(d.path)
		if err != nil {
			return nil, errors.NewError("readDir", err)
		}
		entries := make([]fileInfo, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, fileInfo{
				name:  info.Name(),
				size:  info.Size(),
				isDir: info.IsDir(),
			})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
		d.entries = entries
		d.loaded = true
	}

	end := d.offset + d.pageSize
	if end > len(d.entries) {
		end = len(d.entries)
	}

	page := &Page{}
	for _, entry := range d.entries[d.offset:end] {
		child := filepath.Join(d.path, entry.name)
		if entry.isDir {
			page.Dirs = append(page.Dirs, &fsDir{
				fsys:     d.fsys,
				path:     child,
				name:     entry.name,
				pageSize: d.pageSize,
			})
		} else {
			page.Files = append(page.Files, &fsFile{
				path: child,
				name: entry.name,
				size: entry.size,
			})
		}
	}
	d.offset = end
	return page, nil
}
