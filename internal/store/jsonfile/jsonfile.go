// Package jsonfile persists the expense list as a single pretty-printed
// JSON array on disk.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"spendbook/internal/core"
	"spendbook/internal/store"
)

const indent = "    "

var _ store.Store = (*Store)(nil)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the whole file. A missing or blank file yields an empty list.
func (s *Store) Load(ctx context.Context) (core.ExpenseList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.ExpenseList{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.ExpenseList{}, nil
	}

	var list core.ExpenseList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if list == nil {
		list = core.ExpenseList{}
	}
	return list, nil
}

// Save rewrites the whole file. The new content is written to a temporary
// file in the same directory and renamed over the old one.
func (s *Store) Save(ctx context.Context, list core.ExpenseList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if list == nil {
		list = core.ExpenseList{}
	}
	data, err := json.MarshalIndent(list, "", indent)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
