package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// AudioExtension is the extension every synchronized song is transcoded to.
const AudioExtension = "mp3"

// Song represents an individual entry of a playlist, either listed upstream
// or recorded in the local manifest.
type Song struct {
	ID         string
	Title      string
	URL        string
	Restricted bool

	// FilePath is where the song lives (or will live) on disk.
	FilePath string
	// Playlist is the name of the owning playlist.
	Playlist string
}

// NewSong builds a song owned by the playlist stored in directory. The title
// is sanitized so it can be used as a file name.
func NewSong(id, title, url, playlist, directory string) *Song {
	safeTitle := SanitizeTitle(title)
	return &Song{
		ID:       id,
		Title:    safeTitle,
		URL:      url,
		Playlist: playlist,
		FilePath: filepath.Join(directory, fmt.Sprintf("%s.%s", safeTitle, AudioExtension)),
	}
}

// FileName returns the base name of the song's file.
func (s *Song) FileName() string {
	return filepath.Base(s.FilePath)
}

// Entry is a single item of an upstream playlist listing.
type Entry struct {
	ID    string
	Title string
	URL   string
}

// PlaylistInfo is the upstream description of a playlist.
type PlaylistInfo struct {
	ID       string
	Title    string
	Uploader string
	Entries  []*Entry
}

var titleReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"|", "_",
	"*", "_",
	"<", "_",
	">", "_",
	"?", "",
	"\"", "'",
	": ", " - ",
	":", " -",
)

// SanitizeTitle strips characters that are not safe to use in file names.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, title)
	title = titleReplacer.Replace(title)
	title = strings.TrimSpace(title)
	title = strings.TrimRight(title, ". ")
	if title == "" {
		return "_"
	}
	return title
}
