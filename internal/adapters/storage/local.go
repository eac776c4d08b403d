package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore はローカルファイルシステム上にアップロードを保存します。
type LocalStore struct {
	root string
}

// NewLocalStore は LocalStore を生成します。
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Save は r の内容を path に書き込み、保存先の参照を返します。
// path はストアのルートからの相対パスとして解釈されます。
func (s *LocalStore) Save(ctx context.Context, path string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel, err := s.cleanPath(path)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("storage: write file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close file: %w", err)
	}

	return rel, nil
}

// Delete は Save が返した参照のファイルを削除します。
// 既に存在しない場合はエラーとしません。
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, err := s.cleanPath(ref)
	if err != nil {
		return err
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// Open は保存済みファイルを読み取り用に開きます。
func (s *LocalStore) Open(ref string) (io.ReadCloser, error) {
	rel, err := s.cleanPath(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) cleanPath(path string) (string, error) {
	rel := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if rel == "" {
		return "", fmt.Errorf("storage: path is required")
	}

	cleaned := filepath.ToSlash(filepath.Clean(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: path %s escapes the store root", path)
	}
	return cleaned, nil
}
