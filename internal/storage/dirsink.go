package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("export name must name a file")

// DirSink writes exported documents to files under a directory. It is
// used when no database is available.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// SaveTrack writes data to "<id>-<name>" and returns the id. The file is
// written to a temporary name first and renamed into place.
func (d *DirSink) SaveTrack(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}

	id := uuid.NewString()
	tmp, err := os.CreateTemp(d.dir, ".export-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	target := d.Path(id, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return id, nil
}

// Path returns where an export with the given id and name is stored.
func (d *DirSink) Path(id, name string) string {
	return filepath.Join(d.dir, id+"-"+filepath.Base(name))
}

func validName(name string) bool {
	base := filepath.Base(name)
	return name != "" && base != "." && base != ".." && base != string(filepath.Separator)
}
