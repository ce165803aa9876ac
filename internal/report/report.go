// Package report prints human readable playlist status.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
)

const separatorWidth = 80

// Status is the read-only view of a playlist the reporter needs.
type Status interface {
	Synced() []*domain.Song
	Restricted() []*domain.Song
	ToRemove() []*domain.Song
	ToDownload() []*domain.Song
	NonTracked() []string
}

// Check writes a full status report of the playlist.
func Check(w io.Writer, name, uploader string, s Status) error {
	ew := &errWriter{w: w}

	ew.printf("%s by %s\n", name, uploader)
	ew.printf("%s\n", strings.Repeat("-", separatorWidth))
	ew.printf("Synced songs: %d\n", len(s.Synced()))

	ew.printf("Songs to remove: %d\n", len(s.ToRemove()))
	ew.songs(s.ToRemove())

	ew.printf("Songs to download: %d\n", len(s.ToDownload()))
	ew.songs(s.ToDownload())

	ew.printf("Untracked songs: %d\n", len(s.NonTracked()))
	for _, file := range s.NonTracked() {
		ew.printf("  - %s\n", file)
	}

	ew.printf("Copyrighted songs: %d (not downloaded)\n", len(s.Restricted()))
	ew.songs(s.Restricted())

	return ew.err
}

// NeedsSync writes the number of songs a sync would remove or download.
func NeedsSync(w io.Writer, s Status) error {
	_, err := fmt.Fprintln(w, len(s.ToDownload())+len(s.ToRemove()))
	return err
}

// NeedsDownload writes the number of songs a sync would download.
func NeedsDownload(w io.Writer, s Status) error {
	_, err := fmt.Fprintln(w, len(s.ToDownload()))
	return err
}

// errWriter remembers the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) songs(songs []*domain.Song) {
	for _, song := range songs {
		e.printf("  - %s\n", song.Title)
	}
}
