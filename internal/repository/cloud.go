package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/muvel/internal/apperr"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/storage"
)

// CloudBackup copies episodes into the app-local mirror folder
// cloud/<novelId>. It is a one-way export; nothing is read back.
type CloudBackup struct {
	*core
}

// ProjectRoot returns the mirror folder of a novel.
func (c *CloudBackup) ProjectRoot(novelID string) string {
	return filepath.Join(c.cloudDir, novelID)
}

// EnsureProjectDirectories creates the mirror folder of a novel with its
// episodes and resources/images folders, and returns its path.
func (c *CloudBackup) EnsureProjectDirectories(novelID string) (string, error) {
	if novelID == "" || filepath.Base(novelID) != novelID {
		return "", apperr.Validation("invalid novel id %q", novelID)
	}
	root := c.ProjectRoot(novelID)
	for _, dir := range []string{
		filepath.Join(root, storage.EpisodesDir),
		filepath.Join(root, storage.ResourcesDir, storage.ImagesDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", apperr.IO(err, "mkdir %s", dir)
		}
	}
	return root, nil
}

// WriteNovelMetadata writes novel to <root>/<novelId>.muvl.
func (c *CloudBackup) WriteNovelMetadata(root, novelID string, novel *models.Novel) error {
	return storage.WriteJSONAtomic(filepath.Join(root, novelID+"."+storage.NovelExt), novel)
}

// BackupEpisode copies one episode and its novel metadata into the
// mirror and returns the mirror root.
func (c *CloudBackup) BackupEpisode(_ context.Context, episodeID string) (string, error) {
	novelID, p, err := c.resolveItem(episodeID, models.ItemEpisode)
	if err != nil {
		return "", err
	}
	ep, err := p.ReadEpisode(episodeID)
	if err != nil {
		return "", err
	}
	novel, err := p.ReadNovel()
	if err != nil {
		return "", err
	}

	root, err := c.EnsureProjectDirectories(novelID)
	if err != nil {
		return "", err
	}
	mirror := *novel
	mirror.Share = models.ShareLocal
	mirror.EpisodeCount = nil
	mirror.UpdatedAt = c.now()
	mirror.LocalPath = root
	if err := c.WriteNovelMetadata(root, novelID, &mirror); err != nil {
		return "", err
	}
	if err := c.project(root).WriteEpisode(episodeID, ep); err != nil {
		return "", err
	}

	c.logger.Info("repository: episode backed up",
		slog.String("novel_id", novelID), slog.String("episode_id", episodeID), slog.String("path", root))
	return root, nil
}
