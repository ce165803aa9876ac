// Package downloader resolves remote playlists and downloads their songs.
// The heavy lifting is delegated to yt-dlp.
package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
)

const (
	defaultYtdlpPath    = "yt-dlp"
	defaultYtdlpTimeout = 10 * time.Minute

	playlistURLPrefix = "https://www.youtube.com/playlist?list="
	videoURLPrefix    = "https://www.youtube.com/watch?v="
)

// restrictionMarkers are fragments of yt-dlp output reporting a rights
// restriction.
var restrictionMarkers = []string{
	"copyright grounds",
	"copyright claim",
	"blocked it on copyright",
}

type runFunc func(ctx context.Context, cmd *ytdlp.Command, args ...string) (*ytdlp.Result, error)

func runCommand(ctx context.Context, cmd *ytdlp.Command, args ...string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, args...)
}

// YtdlpDownloader implements Downloader by driving yt-dlp.
type YtdlpDownloader struct {
	path    string
	timeout time.Duration

	run      runFunc
	lookPath func(string) (string, error)
}

// NewYtdlpDownloader creates a downloader using the yt-dlp executable at
// path. Empty values fall back to defaults.
func NewYtdlpDownloader(path string, timeout time.Duration) *YtdlpDownloader {
	if path == "" {
		path = defaultYtdlpPath
	}
	if timeout <= 0 {
		timeout = defaultYtdlpTimeout
	}
	return &YtdlpDownloader{
		path:     path,
		timeout:  timeout,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

// ResolvePlaylist lists the entries of a playlist without downloading them.
func (d *YtdlpDownloader) ResolvePlaylist(ctx context.Context, id string) (*domain.PlaylistInfo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty playlist id", ErrInvalidPlaylist)
	}
	if err := d.checkInstalled(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	url := playlistURL(id)
	slog.Debug("resolving playlist", "url", url)

	cmd := ytdlp.New().
		SetExecutable(d.path).
		FlatPlaylist().
		DumpSingleJSON().
		NoWarnings()

	res, err := d.run(ctx, cmd, url)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("resolving playlist %s timed out after %v", id, d.timeout)
		}
		return nil, fmt.Errorf("yt-dlp failed to resolve playlist %s: %w: %s", id, err, stderrOf(res))
	}

	info, err := parsePlaylist([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}

	slog.Debug("resolved playlist", "id", info.ID, "title", info.Title, "entries", len(info.Entries))
	return info, nil
}

// Download fetches the song and extracts its audio into song.FilePath.
func (d *YtdlpDownloader) Download(ctx context.Context, song *domain.Song) error {
	if err := d.checkInstalled(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := ytdlp.New().
		SetExecutable(d.path).
		NoPlaylist().
		ExtractAudio().
		AudioFormat(domain.AudioExtension).
		NoOverwrites().
		Output(outputTemplate(song.FilePath)).
		NoWarnings().
		Quiet()

	slog.Debug("downloading song", "id", song.ID, "url", song.URL, "path", song.FilePath)

	res, err := d.run(ctx, cmd, song.URL)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("downloading %s timed out after %v", song.Title, d.timeout)
		}
		if isRestricted(err.Error()) || isRestricted(stderrOf(res)) {
			return fmt.Errorf("%s: %w", song.Title, ErrRestricted)
		}
		return fmt.Errorf("yt-dlp failed to download %s: %w: %s", song.Title, err, stderrOf(res))
	}

	return nil
}

// checkInstalled verifies that yt-dlp is installed and available
func (d *YtdlpDownloader) checkInstalled() error {
	if _, err := d.lookPath(d.path); err != nil {
		return fmt.Errorf("%w: %v", ErrYtdlpNotInstalled, err)
	}
	return nil
}

// playlistURL turns a bare playlist id into a URL yt-dlp understands.
func playlistURL(id string) string {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "://") {
		return id
	}
	return playlistURLPrefix + id
}

// outputTemplate builds a yt-dlp output template that produces exactly
// path once the extension is replaced by the audio format.
func outputTemplate(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return strings.ReplaceAll(base, "%", "%%") + ".%(ext)s"
}

func isRestricted(output string) bool {
	output = strings.ToLower(output)
	for _, marker := range restrictionMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return strings.TrimSpace(res.Stderr)
}

// ytdlpPlaylist represents yt-dlp's flat JSON output for a playlist.
type ytdlpPlaylist struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Uploader string       `json:"uploader"`
	Channel  string       `json:"channel"`
	Entries  []ytdlpEntry `json:"entries"`
}

type ytdlpEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// parsePlaylist parses yt-dlp's JSON output into a PlaylistInfo.
func parsePlaylist(data []byte) (*domain.PlaylistInfo, error) {
	var playlist ytdlpPlaylist
	if err := json.Unmarshal(data, &playlist); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	if playlist.ID == "" || playlist.Title == "" {
		return nil, fmt.Errorf("%w: missing id or title in yt-dlp output", ErrInvalidPlaylist)
	}

	info := &domain.PlaylistInfo{
		ID:       playlist.ID,
		Title:    playlist.Title,
		Uploader: coalesce(playlist.Uploader, playlist.Channel),
		Entries:  make([]*domain.Entry, 0, len(playlist.Entries)),
	}

	seen := make(map[string]bool, len(playlist.Entries))
	for _, entry := range playlist.Entries {
		if entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true

		url := entry.URL
		if !strings.Contains(url, "://") {
			url = videoURLPrefix + entry.ID
		}
		info.Entries = append(info.Entries, &domain.Entry{
			ID:    entry.ID,
			Title: entry.Title,
			URL:   url,
		})
	}

	return info, nil
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsRestricted reports whether err signals a rights restriction.
func IsRestricted(err error) bool {
	return errors.Is(err, ErrRestricted)
}
