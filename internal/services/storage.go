package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService keeps uploaded resumes until their analysis has run.
type StorageService interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) (StorageService, error) {
	s := &storageService{
		uploadPath: uploadPath,
	}
	if err := s.EnsureUploadDir(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// Save implements StorageService. The returned key is the stored file name.
func (s *storageService) Save(ctx context.Context, filename string, data []byte) (string, error) {
	key := storageKey(filename)

	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return key, nil
}

// Read implements StorageService.
func (s *storageService) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete implements StorageService.
func (s *storageService) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *storageService) path(key string) string {
	return filepath.Join(s.uploadPath, filepath.Base(key))
}

// storageKey generates a unique name that keeps the original extension.
func storageKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
}
