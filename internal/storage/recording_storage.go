package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage errors
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrFileNotFound     = errors.New("recording not found")
	ErrFileTooLarge     = errors.New("recording exceeds size limit")
	ErrUnsupportedAudio = errors.New("unsupported recording format")
)

// MaxRecordingSize is the largest recording accepted (25 MB)
const MaxRecordingSize = 25 * 1024 * 1024

// AudioExtensions lists the recording formats a voicemail can be stored in.
var AudioExtensions = map[string]bool{
	".wav": true, ".gsm": true, ".mp3": true, ".ogg": true,
	".opus": true, ".g722": true, ".ulaw": true, ".alaw": true,
	".sln": true, ".m4a": true,
}

// RecordingStorage stores voicemail audio. Paths it returns are relative and
// are what Message.Recording holds.
type RecordingStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) error
}

// localStorage implements RecordingStorage on the local filesystem
type localStorage struct {
	basePath string
	maxSize  int64
}

// NewLocalStorage creates the storage rooted at basePath.
func NewLocalStorage(basePath string) (RecordingStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath, maxSize: MaxRecordingSize}, nil
}

// ValidateRecording checks a recording's file name and declared size.
func ValidateRecording(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !AudioExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedAudio, ext)
	}
	if size > MaxRecordingSize {
		return ErrFileTooLarge
	}
	return nil
}

// resolve maps a stored relative path to an absolute one inside basePath.
func (s *localStorage) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(cleanPath) || strings.Contains(cleanPath, "..") || strings.Contains(cleanPath, ":") {
		return "", ErrPathTraversal
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("invalid recording path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return absPath, nil
}

// Save writes content under a generated name keeping the original extension.
// Content beyond the size limit aborts the write.
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	if err := ValidateRecording(filename, 0); err != nil {
		return "", err
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	// Two-character fan-out keeps directories small.
	rel := filepath.Join(name[:2], name)
	full := filepath.Join(s.basePath, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create recording: %w", err)
	}

	n, err := io.Copy(file, io.LimitReader(content, s.maxSize+1))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		os.Remove(full)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write recording: %w", err)
	}

	return filepath.ToSlash(rel), nil
}

// Open returns the recording at path.
func (s *localStorage) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	return file, nil
}

// Delete removes the recording at path. A missing file is not an error.
func (s *localStorage) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return nil
}
