package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/samber/do"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// NewName returns a fresh object name for a generated image.
func NewName() string {
	return uuid.NewString() + ".png"
}

type FileUploader struct {
	Dir string
}

func NewFileUploader(i *do.Injector) (Uploader, error) {
	return &FileUploader{Dir: do.MustInvokeNamed[string](i, "output_dir")}, nil
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	path := filepath.Join(u.Dir, filepath.Base(params.Name))
	log := logr.FromContextOrDiscard(ctx).WithName("file")
	log.Info("writing", "file", path)
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, params.Data, 0600)
}
