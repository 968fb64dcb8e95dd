package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is a piece of shared text, such as a clipboard, that the watcher
// polls and may overwrite.
type Source interface {
	Read() (string, error)
	Write(text string) error
}

// FileSource keeps the watched text in a file. A missing file reads as empty.
type FileSource struct {
	Path string
}

func (s *FileSource) Read() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Write replaces the file's contents by renaming a temporary file over it, so
// readers never see a partial write.
func (s *FileSource) Write(text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
