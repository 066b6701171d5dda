package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/starford/muvel/internal/apperr"
)

// WriteFileAtomic replaces path with data so that readers never see a
// partial file: write path+".tmp", fsync, close, rename. The parent
// directory is created first. A crash before the rename leaves the old
// file untouched and at worst an orphan .tmp file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.IO(err, "storage: mkdir %s", dir)
	}

	tmpName := path + ".tmp"
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperr.IO(err, "storage: create temp %s", tmpName)
	}

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return apperr.IO(err, "storage: write temp %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		return apperr.IO(err, "storage: fsync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return apperr.IO(err, "storage: close temp %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperr.IO(err, "storage: rename %s", path)
	}
	success = true
	return nil
}

// WriteJSONAtomic pretty-prints v and writes it with WriteFileAtomic.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, err, "storage: encode %s", path)
	}
	return WriteFileAtomic(path, data)
}

// readJSON reads and decodes path into v. A missing file is reported as
// ErrNotFound and a decode failure as ErrCorruptData.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.Wrap(apperr.ErrNotFound, err, "storage: %s does not exist", path)
		}
		return apperr.IO(err, "storage: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Corrupt(err, "storage: decode %s", path)
	}
	return nil
}

// removeFile deletes path; a missing file is not an error.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.IO(err, "storage: delete %s", path)
	}
	return nil
}
