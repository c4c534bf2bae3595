package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// URLPrefix is the public path under which stored photos are served.
const URLPrefix = "/uploads"

// MaxPhotoSize is the upload size limit for pet photos.
const MaxPhotoSize = 5 << 20 // 5MB

// ErrInvalidPhoto is returned when an upload is not an accepted image type
// or exceeds the size limit.
var ErrInvalidPhoto = errors.New("only jpeg, jpg, png or gif images up to 5MB are allowed")

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// Store saves and removes uploaded pet photos on the local filesystem.
type Store struct {
	baseDir string
}

// NewStore creates a photo store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the directory photos are written to.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// SavePhoto validates and stores an uploaded photo under a generated unique
// name and returns its public URL path (e.g. /uploads/pet-<uuid>.jpg).
func (s *Store) SavePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxPhotoSize {
		return "", ErrInvalidPhoto
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrInvalidPhoto
	}
	if !allowedMIMETypes[header.Header.Get("Content-Type")] {
		return "", ErrInvalidPhoto
	}

	name := "pet-" + uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("could not create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, MaxPhotoSize+1)); err != nil {
		os.Remove(dst.Name()) // Clean up partial file
		return "", fmt.Errorf("could not write photo file: %w", err)
	}

	return URLPrefix + "/" + name, nil
}

// DeletePhoto removes a previously stored photo by its public URL path.
// A missing file is not an error; anything else is logged and swallowed,
// photo cleanup is best-effort.
func (s *Store) DeletePhoto(urlPath string) {
	if urlPath == "" {
		return
	}
	// Only the filename is trusted; the stored path is flattened to keep
	// deletes inside the upload directory.
	name := path.Base(urlPath)
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("photo", urlPath).Msg("Failed to delete photo file")
	}
}
