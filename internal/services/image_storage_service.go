package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalImageService stores generated image files on local disk. It fills the
// role a blob store would in a hosted deployment; names are flat, no
// subdirectories.
type LocalImageService struct {
	root string
}

func NewLocalImageService(root string) (*LocalImageService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalImageService{root: root}, nil
}

// Root returns the directory images are written to, for static serving.
func (s *LocalImageService) Root() string {
	return s.root
}

// path rejects names that would escape the image directory.
func (s *LocalImageService) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return filepath.Join(s.root, name), nil
}

func (s *LocalImageService) SaveImage(name string, content io.Reader) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return f.Close()
}

func (s *LocalImageService) LoadImage(name string) ([]byte, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *LocalImageService) DeleteImage(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (s *LocalImageService) ListImages() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
