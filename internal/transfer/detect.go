package transfer

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// DefaultContentType is used when no content type can be determined.
const DefaultContentType = "application/octet-stream"

// DetectContentType determines the content type by sniffing the file's
// first bytes, falling back to extension-based lookup when the content is
// unreadable.
func DetectContentType(fsys fs.Filesystem, path string) string {
	file, err := fsys.Open(path)
	if err != nil {
		return detectContentTypeFromExtension(path)
	}
	defer file.Close()

	// Read first 512 bytes for content detection
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension maps the file extension to a MIME type.
func detectContentTypeFromExtension(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return DefaultContentType
}
