package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const defaultImageExt = "png"

// SaveImage stores data as resources/images/<uuid>.<ext>, taking the
// extension from originalName (png when it has none), and returns the
// absolute path of the new file.
func (p *Project) SaveImage(originalName string, data []byte) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = defaultImageExt
	}

	dir := filepath.Join(p.root, ResourcesDir, ImagesDir)
	path := filepath.Join(dir, uuid.NewString()+"."+ext)
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
