package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newthinker/signalpro/internal/core"
)

// LocalFS implements Storage on the local filesystem.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates basePath if needed.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		return nil, core.WrapError(core.ErrArchiveFailed, errors.New("base path is empty"))
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("creating base path: %w", err))
	}
	return &LocalFS{basePath: filepath.Clean(basePath)}, nil
}

// fullPath resolves path under the base directory and refuses to leave it.
func (l *LocalFS) fullPath(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(path))
	if full != l.basePath && !strings.HasPrefix(full, l.basePath+string(filepath.Separator)) {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("path %q escapes archive root", path))
	}
	return full, nil
}

func (l *LocalFS) Write(ctx context.Context, path string, data []byte) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return core.WrapError(core.ErrArchiveFailed, fmt.Errorf("creating directories: %w", err))
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	return nil
}

func (l *LocalFS) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return data, nil
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath, err := l.fullPath(prefix)
	if err != nil {
		return nil, err
	}

	paths := []string{}
	err = filepath.WalkDir(searchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})

	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *LocalFS) Delete(ctx context.Context, path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	return nil
}

func (l *LocalFS) Exists(ctx context.Context, path string) (bool, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, core.WrapError(core.ErrArchiveFailed, err)
	}
	return true, nil
}
