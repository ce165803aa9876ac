package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
	"github.com/pavlin-policar/youtube-playlist/internal/downloader"
	"github.com/pavlin-policar/youtube-playlist/internal/notify"
	"github.com/pavlin-policar/youtube-playlist/internal/progress"
)

// Summary describes what a sync did.
type Summary struct {
	Removed    int
	Downloaded int
	Restricted int
	Skipped    int
	// Total is the number of tracked songs once the sync finished.
	Total int
}

// Changed reports whether the sync touched anything.
func (s Summary) Changed() bool {
	return s.Removed > 0 || s.Downloaded > 0 || s.Restricted > 0 || s.Skipped > 0
}

// Sync removes songs that left the playlist and downloads songs that joined
// it. The manifest is rewritten after every song so an interrupted sync loses
// at most the song in flight. The first unexpected error aborts the sync.
func (p *Playlist) Sync(ctx context.Context) (*Summary, error) {
	log := p.log.With("run", uuid.NewString())
	summary := &Summary{}

	if len(p.toRemove) > 0 {
		log.Info("removing tracks", "count", len(p.toRemove))
		p.progress.StartStage(progress.StageRemoving, "Deleting removed tracks from local file system.")
		if err := p.removeSongs(ctx, log, summary); err != nil {
			p.progress.SetError(err)
			return summary, err
		}
	}

	if len(p.toDownload) > 0 {
		if p.downloader == nil {
			return summary, fmt.Errorf("playlist %s: no downloader configured", p.Name)
		}
		log.Info("downloading tracks", "count", len(p.toDownload))
		p.progress.StartStage(progress.StageDownloading, "Downloading added tracks to local file system.")
		if err := p.downloadSongs(ctx, log, summary); err != nil {
			p.progress.SetError(err)
			return summary, err
		}
	}

	summary.Total = len(p.local)
	p.progress.StartStage(progress.StageComplete, "")

	if p.reconciliation.Pending() > 0 {
		notify.Send(p.notifier, fmt.Sprintf("%s Sync Complete", p.Name), syncMessage(summary))
	}

	log.Info("sync complete",
		"removed", summary.Removed,
		"downloaded", summary.Downloaded,
		"restricted", summary.Restricted,
		"skipped", summary.Skipped,
		"total", summary.Total,
	)
	return summary, nil
}

func (p *Playlist) removeSongs(ctx context.Context, log *slog.Logger, summary *Summary) error {
	for i, song := range p.toRemove {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.progress.UpdateTrackProgress(i+1, len(p.toRemove), song.Title)

		// Restricted songs were never downloaded, so there is no file.
		if !song.Restricted {
			if err := p.storage.Remove(song.FilePath); err != nil {
				return fmt.Errorf("failed to remove %s: %w", song.Title, err)
			}
		}

		delete(p.local, song.ID)
		if err := p.saveManifest(); err != nil {
			return err
		}
		log.Info("removed track", "title", song.Title, "restricted", song.Restricted)
		summary.Removed++
	}
	return nil
}

func (p *Playlist) downloadSongs(ctx context.Context, log *slog.Logger, summary *Summary) error {
	for i, song := range p.toDownload {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.progress.UpdateTrackProgress(i+1, len(p.toDownload), song.Title)

		if err := p.downloadSong(ctx, log, song, summary); err != nil {
			return err
		}

		p.local[song.ID] = song
		if err := p.saveManifest(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Playlist) downloadSong(ctx context.Context, log *slog.Logger, song *domain.Song, summary *Summary) error {
	if p.storage.FileExists(song.FilePath) {
		p.progress.Message(fmt.Sprintf("`%s` already exists. Skipping download.", song.Title))
		log.Info("track not in data file but already on disk, skipping download", "title", song.Title)
		summary.Skipped++
		return nil
	}

	err := p.downloader.Download(ctx, song)
	switch {
	case err == nil:
		summary.Downloaded++
		return nil
	case downloader.IsRestricted(err):
		song.Restricted = true
		p.progress.Message(fmt.Sprintf("Unable to download `%s` due to copyright restrictions", song.Title))
		log.Info("track is restricted", "title", song.Title, "error", err)
		summary.Restricted++
		return nil
	default:
		return fmt.Errorf("failed to download %s: %w", song.Title, err)
	}
}

func syncMessage(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synchronization complete. Playlist contains %d tracks.\n", s.Total)
	if s.Removed > 0 {
		fmt.Fprintf(&b, "Removed %d tracks.\n", s.Removed)
	}
	if downloaded := s.Downloaded + s.Skipped; downloaded > 0 {
		fmt.Fprintf(&b, "Downloaded %d tracks.\n", downloaded)
	}
	if s.Restricted > 0 {
		fmt.Fprintf(&b, "%d tracks could not be downloaded due to copyright restrictions.\n", s.Restricted)
	}
	return b.String()
}

// RemoveUntracked deletes every untracked audio file from the playlist
// directory and returns how many were removed.
func (p *Playlist) RemoveUntracked(ctx context.Context) (int, error) {
	files := p.nonTracked
	if len(files) == 0 {
		p.progress.Message("Nothing to do.")
		return 0, nil
	}

	p.progress.StartStage(progress.StageRemoving, "Removing untracked files.")
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		p.progress.UpdateTrackProgress(i+1, len(files), file)
		if err := p.storage.Remove(filepath.Join(p.Directory, file)); err != nil {
			p.progress.SetError(err)
			return i, fmt.Errorf("failed to remove %s: %w", file, err)
		}
	}
	p.progress.StartStage(progress.StageComplete, "")

	nonTracked, err := p.scanNonTracked()
	if err != nil {
		return len(files), err
	}
	p.nonTracked = nonTracked

	p.log.Info("removed untracked files", "count", len(files))
	notify.Send(p.notifier, "Finished removing untracked", fmt.Sprintf("%d tracks removed", len(files)))
	return len(files), nil
}
