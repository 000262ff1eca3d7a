// Package files defines the file store boundary for assignment attachments
// and submission uploads.
package files

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxSize is the upload size cap.
const MaxSize = 16 << 20 // 16 MiB

var (
	// errors
	ErrInvalidFileType = errors.New("file type not allowed")
	ErrFileTooLarge    = fmt.Errorf("file exceeds %d MiB", MaxSize>>20)

	allowedExts = map[string]bool{
		".txt":  true,
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
)

// Storage saves uploads under an opaque ref and streams them back.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// UniqueName validates the upload's extension and derives a collision-free
// storage name from it.
func UniqueName(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExts[ext] {
		return "", ErrInvalidFileType
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	return fmt.Sprintf("%s.%s%s", base, uuid.New().String(), ext), nil
}

// CopyLimited copies r into w, failing with ErrFileTooLarge past MaxSize.
func CopyLimited(w io.Writer, r io.Reader) error {
	n, err := io.Copy(w, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return errors.Wrap(err, "copying upload")
	}
	if n > MaxSize {
		return ErrFileTooLarge
	}
	return nil
}
