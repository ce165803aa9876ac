package downloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavlin-policar/youtube-playlist/config"
	"github.com/pavlin-policar/youtube-playlist/internal/domain"
)

var (
	// ErrRestricted is returned by Download when the source refuses to serve
	// a song because of a rights restriction. It is an expected outcome.
	ErrRestricted = errors.New("restricted on copyright grounds")

	ErrYtdlpNotInstalled = errors.New("yt-dlp not available")
	ErrInvalidPlaylist   = errors.New("invalid playlist")
)

// Downloader resolves playlists and fetches songs from a remote source.
type Downloader interface {
	// ResolvePlaylist returns the current upstream listing of a playlist.
	ResolvePlaylist(ctx context.Context, id string) (*domain.PlaylistInfo, error)

	// Download fetches a single song into song.FilePath, transcoding it to
	// the configured audio format.
	Download(ctx context.Context, song *domain.Song) error
}

// NewDownloader returns the downloader selected by the configuration.
func NewDownloader(cfg *config.Config) (Downloader, error) {
	if cfg.Ytdlp.AudioFormat != "" && cfg.Ytdlp.AudioFormat != domain.AudioExtension {
		return nil, fmt.Errorf("unsupported audio format: %s", cfg.Ytdlp.AudioFormat)
	}
	return NewYtdlpDownloader(cfg.Ytdlp.Path, cfg.Ytdlp.Timeout), nil
}
