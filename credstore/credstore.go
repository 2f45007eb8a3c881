// Package credstore persists store credentials as a JSON document in the
// user's configuration directory.
//
// The stored document carries the access key pair, the endpoint URL, and
// the bucket name. A document that is missing, unparsable, or lacking any
// of the four fields reports ErrNotConfigured, so callers fall back to
// their configuration flow instead of uploading with partial credentials.
package credstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

const (
	// appDir is the directory name under the XDG config home
	appDir = "s3upload"

	// credentialsFile is the document name inside appDir
	credentialsFile = "credentials.json"

	// dirPerm keeps the config directory private to the user
	dirPerm = 0o700

	// filePerm keeps the credentials document private to the user
	filePerm = 0o600
)

// Store reads and writes the credentials document at a fixed location.
type Store struct {
	// fsys is the filesystem abstraction holding the document
	fsys fs.Filesystem

	// dir is the directory containing the document
	dir string
}

// New creates a store rooted at dir on the given filesystem.
func New(fsys fs.Filesystem, dir string) *Store {
	return &Store{fsys: fsys, dir: dir}
}

// Default creates a store at the user's XDG config location, typically
// ~/.config/s3upload on Linux.
func Default() *Store {
	return New(billy.NewOSFS("/"), filepath.Join(xdg.ConfigHome, appDir))
}

// Path returns the location of the credentials document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Load reads the stored credentials. It returns ErrNotConfigured when the
// document is absent, unparsable, or missing any required field; callers
// should treat that as a prompt to run their configuration flow.
func (s *Store) Load() (uploadtypes.Credentials, error) {
	var creds uploadtypes.Credentials

	path := s.Path()
	exists, err := s.fsys.Exists(path)
	if err != nil {
		return creds, errors.NewError("load", err)
	}
	if !exists {
		return creds, errors.NewError("load", errors.ErrNotConfigured)
	}

	data, err := s.fsys.ReadFile(path)
	if err != nil {
		return creds, errors.NewError("load", err)
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, errors.NewError("load", errors.ErrNotConfigured).
			WithMessage(fmt.Sprintf("stored credentials at %s are malformed", path))
	}

	if field := creds.Missing(); field != "" {
		return uploadtypes.Credentials{}, errors.NewError("load", errors.ErrNotConfigured).
			WithMessage(fmt.Sprintf("stored credentials at %s are missing field %q", path, field))
	}

	return creds, nil
}

// Save validates and writes the credentials document, creating the config
// directory if needed. The document and its directory are readable only
// by the user.
func (s *Store) Save(creds uploadtypes.Credentials) error {
	if field := creds.Missing(); field != "" {
		return errors.NewError("save", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("missing credential field %q", field))
	}

	if err := s.fsys.MkdirAll(s.dir, dirPerm); err != nil {
		return errors.NewError("save", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.NewError("save", err)
	}
	data = append(data, '\n')

	if err := s.fsys.WriteFile(s.Path(), data, filePerm); err != nil {
		return errors.NewError("save", err)
	}
	return nil
}
