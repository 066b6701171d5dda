// Package storage reads and writes the documents of one project folder.
//
// Layout of a project root R:
//
//	R/<name>.muvl                                  novel metadata
//	R/episodes/<id>.mvle                           episode
//	R/episodes/snapshots/<episodeId>/<id>.mvles    snapshot
//	R/wiki/<id>.mvlw                               wiki page
//	R/resources/images/<uuid>.<ext>                image
package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
)

// File extensions, without the dot.
const (
	NovelExt    = "muvl"
	EpisodeExt  = "mvle"
	WikiPageExt = "mvlw"
	SnapshotExt = "mvles"
)

// Directory names inside a project root.
const (
	EpisodesDir  = "episodes"
	SnapshotsDir = "snapshots"
	WikiDir      = "wiki"
	ResourcesDir = "resources"
	ImagesDir    = "images"
)

// Project gives access to the files of one project root.
type Project struct {
	root   string
	logger *slog.Logger
}

// NewProject binds a project root. The directory is not touched.
func NewProject(root string, logger *slog.Logger) *Project {
	if logger == nil {
		logger = slog.Default()
	}
	return &Project{root: filepath.Clean(root), logger: logger}
}

// Root returns the project root path.
func (p *Project) Root() string { return p.root }

// Name returns the project folder name.
func (p *Project) Name() string { return filepath.Base(p.root) }

// checkID rejects ids that cannot be used as a file stem inside the
// project.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return apperr.Validation("storage: invalid id %q", id)
	}
	return nil
}

// LocateMetadata finds the single novel metadata file among the
// immediate children of the root. No file is ErrNotFound; more than one
// is ErrAmbiguousState.
func (p *Project) LocateMetadata() (string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperr.Wrap(apperr.ErrNotFound, err, "storage: project root %s does not exist", p.root)
		}
		return "", apperr.IO(err, "storage: read dir %s", p.root)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != "."+NovelExt {
			continue
		}
		found = append(found, filepath.Join(p.root, e.Name()))
	}

	switch len(found) {
	case 0:
		return "", apperr.NotFound("storage: no .%s file in %s", NovelExt, p.root)
	case 1:
		return found[0], nil
	default:
		return "", apperr.New(apperr.ErrAmbiguousState,
			"storage: %d .%s files in %s", len(found), NovelExt, p.root)
	}
}

// ReadNovel locates and decodes the novel metadata.
func (p *Project) ReadNovel() (*models.Novel, error) {
	n, _, err := p.ReadNovelWithPath()
	return n, err
}

// ReadNovelWithPath is ReadNovel that also returns the metadata file path.
func (p *Project) ReadNovelWithPath() (*models.Novel, string, error) {
	path, err := p.LocateMetadata()
	if err != nil {
		return nil, "", err
	}
	var n models.Novel
	if err := readJSON(path, &n); err != nil {
		return nil, "", err
	}
	return &n, path, nil
}

// WriteNovelForCreation writes the metadata of a new project to
// <folder-name>.muvl. It is only meant for a root with no metadata yet.
func (p *Project) WriteNovelForCreation(n *models.Novel) error {
	path := filepath.Join(p.root, p.Name()+"."+NovelExt)
	return WriteJSONAtomic(path, n)
}

// UpdateNovel overwrites the existing metadata file, whatever its name.
func (p *Project) UpdateNovel(n *models.Novel) error {
	path, err := p.LocateMetadata()
	if err != nil {
		return err
	}
	return WriteJSONAtomic(path, n)
}

// CreateDirectories makes the root, episodes, resources and
// resources/images directories. Existing directories are fine.
func (p *Project) CreateDirectories() error {
	for _, dir := range []string{
		p.root,
		filepath.Join(p.root, EpisodesDir),
		filepath.Join(p.root, ResourcesDir),
		filepath.Join(p.root, ResourcesDir, ImagesDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.IO(err, "storage: mkdir %s", dir)
		}
	}
	return nil
}

// CreateWikiDirectory makes the wiki directory.
func (p *Project) CreateWikiDirectory() error {
	dir := filepath.Join(p.root, WikiDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.IO(err, "storage: mkdir %s", dir)
	}
	return nil
}

// DeleteTree removes the whole project folder. A missing root is not an
// error.
func (p *Project) DeleteTree() error {
	if err := os.RemoveAll(p.root); err != nil {
		return apperr.IO(err, "storage: delete project %s", p.root)
	}
	return nil
}

// Valid reports whether the root is a directory holding exactly one
// metadata file.
func (p *Project) Valid() bool {
	info, err := os.Stat(p.root)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = p.LocateMetadata()
	return err == nil
}

// listIDs returns the stems of the files in dir with the given
// extension. A missing dir yields no ids.
func listIDs(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.IO(err, "storage: read dir %s", dir)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != "."+ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, "."+ext))
	}
	return ids, nil
}
