// Package fetcher loads quote documents from local paths and FTP inboxes.
package fetcher

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// MaxDocumentSize caps document reads. Oversized uploads are rejected
// before decoding.
const MaxDocumentSize = 10 << 20

// Document is a fetched quote document.
type Document struct {
	Name string
	Data []byte
}

// IsSupported reports whether name carries a recognized document extension.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls", ".pdf", ".htm", ".html":
		return true
	}
	return false
}

// ReadLocal loads a document from disk, enforcing the size cap.
func ReadLocal(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stat document %s", path)
	}
	if info.Size() > MaxDocumentSize {
		return nil, eris.Errorf("document %s is %d bytes, limit is %d", path, info.Size(), MaxDocumentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read document %s", path)
	}
	return &Document{Name: filepath.Base(path), Data: data}, nil
}

// ReadCapped reads r until EOF, failing once the size cap is exceeded.
func ReadCapped(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, eris.Wrapf(err, "read document %s", name)
	}
	if len(data) > MaxDocumentSize {
		return nil, eris.Errorf("document %s exceeds %d byte limit", name, MaxDocumentSize)
	}
	return data, nil
}
