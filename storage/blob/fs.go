// Package blob stores uploaded material files and hands back durable URLs.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/raphco/materia/core"
)

type fsStore struct {
	root    string
	baseURL string
}

var _ core.BlobStore = (*fsStore)(nil)

// NewFilesystemStore keeps blobs under root and returns URLs below baseURL
// (typically "/media"). The root directory is created on first use.
func NewFilesystemStore(root, baseURL string) core.BlobStore {
	return &fsStore{root: root, baseURL: baseURL}
}

func (s *fsStore) Upload(ctx context.Context, content []byte, mediaType, suggestedName string) (string, error) {
	// prefix with a uuid so colliding upload names never overwrite each other
	name := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeName(suggestedName))
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", errors.Wrap(err, "creating media root")
	}
	if err := os.WriteFile(filepath.Join(s.root, name), content, 0o644); err != nil {
		return "", errors.Wrap(err, "writing blob")
	}
	return s.baseURL + "/" + name, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "file"
	}
	return name
}
