package playlist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
	"github.com/pavlin-policar/youtube-playlist/internal/manifest"
	"github.com/pavlin-policar/youtube-playlist/internal/progress"
	"github.com/pavlin-policar/youtube-playlist/internal/storage"
)

const (
	testRoot = "/music"
	testDir  = "/music/Chill"
)

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) ResolvePlaylist(ctx context.Context, id string) (*domain.PlaylistInfo, error) {
	args := m.Called(ctx, id)
	info, _ := args.Get(0).(*domain.PlaylistInfo)
	return info, args.Error(1)
}

func (m *mockDownloader) Download(ctx context.Context, song *domain.Song) error {
	args := m.Called(ctx, song)
	return args.Error(0)
}

type recordingNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return n.err
}

type fixture struct {
	fs         afero.Fs
	storage    *storage.LocalFileStorage
	downloader *mockDownloader
	notifier   *recordingNotifier
	events     []progress.Event
	logs       bytes.Buffer
}

func newFixture() *fixture {
	fs := afero.NewMemMapFs()
	return &fixture{
		fs:         fs,
		storage:    storage.NewLocalFileStorage(fs),
		downloader: &mockDownloader{},
		notifier:   &recordingNotifier{},
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Downloader: f.downloader,
		Storage:    f.storage,
		Notifier:   f.notifier,
		Progress: progress.NewProgressTracker(func(e progress.Event) {
			f.events = append(f.events, e)
		}),
		Logger: slog.New(slog.NewTextHandler(&f.logs, nil)),
	}
}

func (f *fixture) build(t *testing.T, info *domain.PlaylistInfo) *Playlist {
	t.Helper()
	p, err := New(info, testRoot, f.deps())
	require.NoError(t, err)
	return p
}

func (f *fixture) touch(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(testDir, name), []byte("audio"), 0o644))
}

func (f *fixture) exists(name string) bool {
	return f.storage.FileExists(filepath.Join(testDir, name))
}

func (f *fixture) writeManifest(t *testing.T, id, name string, records ...manifest.Record) {
	t.Helper()
	m := manifest.New(id, name)
	for _, r := range records {
		m.Songs[r.ID] = r
	}
	require.NoError(t, f.store().Save(m))
}

func (f *fixture) readManifest(t *testing.T) manifest.Result {
	t.Helper()
	result, err := f.store().Load("PL1", "Chill")
	require.NoError(t, err)
	return result
}

func (f *fixture) store() *manifest.Store {
	return manifest.NewStore(f.storage, filepath.Join(testDir, manifest.FileName))
}

func (f *fixture) messages() []string {
	var out []string
	for _, e := range f.events {
		if e.Message != "" {
			out = append(out, e.Message)
		}
	}
	return out
}

func playlistInfo(titles ...string) *domain.PlaylistInfo {
	info := &domain.PlaylistInfo{ID: "PL1", Title: "Chill", Uploader: "someone"}
	for _, title := range titles {
		info.Entries = append(info.Entries, &domain.Entry{
			ID:    "id-" + title,
			Title: title,
			URL:   "https://www.youtube.com/watch?v=id-" + title,
		})
	}
	return info
}

func record(title string, restricted bool) manifest.Record {
	return manifest.Record{
		ID:         "id-" + title,
		Title:      title,
		URL:        "https://www.youtube.com/watch?v=id-" + title,
		Restricted: restricted,
	}
}

func titles(songs []*domain.Song) []string {
	out := make([]string, 0, len(songs))
	for _, s := range songs {
		out = append(out, s.Title)
	}
	return out
}

func TestNewWithoutManifest(t *testing.T) {
	f := newFixture()
	p := f.build(t, playlistInfo("C", "A", "B"))

	assert.Equal(t, "PL1", p.ID)
	assert.Equal(t, "Chill", p.Name)
	assert.Equal(t, "someone", p.Uploader)
	assert.Equal(t, testDir, p.Directory)
	assert.Equal(t, filepath.Join(testDir, "data.gob"), p.ManifestPath())

	assert.Empty(t, p.Synced())
	assert.Empty(t, p.ToRemove())
	assert.Empty(t, p.Restricted())
	assert.Empty(t, p.NonTracked())
	assert.Equal(t, []string{"C", "A", "B"}, titles(p.ToDownload()))
	assert.Equal(t, filepath.Join(testDir, "C.mp3"), p.ToDownload()[0].FilePath)
}

func TestNewSanitizesDirectory(t *testing.T) {
	tests := []struct {
		title string
		dir   string
	}{
		{title: "AC/DC Hits", dir: "/music/AC_DC Hits"},
		{title: "..", dir: "/music/_"},
		{title: ".", dir: "/music/_"},
		{title: "../Escaped", dir: "/music/.._Escaped"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			f := newFixture()
			info := playlistInfo("A")
			info.Title = tt.title

			p := f.build(t, info)

			assert.Equal(t, tt.dir, p.Directory)
			assert.Equal(t, tt.title, p.Name)
			assert.Equal(t, filepath.Join(tt.dir, "data.gob"), p.ManifestPath())
			assert.Equal(t, filepath.Join(tt.dir, "A.mp3"), p.ToDownload()[0].FilePath)
		})
	}
}

func TestNewRootAudioFilesAreNotUntracked(t *testing.T) {
	f := newFixture()
	require.NoError(t, afero.WriteFile(f.fs, filepath.Join(testRoot, "loose.mp3"), []byte("audio"), 0o644))
	info := playlistInfo("A")
	info.Title = "."

	p := f.build(t, info)
	removed, err := p.RemoveUntracked(context.Background())
	require.NoError(t, err)

	assert.Zero(t, removed)
	assert.True(t, f.storage.FileExists(filepath.Join(testRoot, "loose.mp3")))
}

func TestNewDuplicateUpstreamEntries(t *testing.T) {
	f := newFixture()
	info := playlistInfo("A", "B")
	info.Entries = append(info.Entries, &domain.Entry{ID: "id-A", Title: "A again"})

	p := f.build(t, info)
	assert.Equal(t, []string{"A", "B"}, titles(p.ToDownload()))
}

func TestNewDropsMissingSongs(t *testing.T) {
	f := newFixture()
	f.writeManifest(t, "PL1", "Chill", record("A", false), record("B", false))
	f.touch(t, "A.mp3")

	p := f.build(t, playlistInfo("A"))

	assert.Equal(t, []string{"A"}, titles(p.Synced()))
	assert.Empty(t, p.ToRemove())
	assert.Empty(t, p.ToDownload())
	assert.Len(t, p.Local(), 1)

	// The manifest is not rewritten while loading.
	assert.Len(t, f.readManifest(t).Manifest.Songs, 2)
}

func TestNewKeepsRestrictedSongs(t *testing.T) {
	f := newFixture()
	f.writeManifest(t, "PL1", "Chill", record("A", false), record("R", true))
	f.touch(t, "A.mp3")

	p := f.build(t, playlistInfo("A", "R"))

	assert.Equal(t, []string{"A"}, titles(p.Synced()))
	assert.Equal(t, []string{"R"}, titles(p.Restricted()))
	assert.Empty(t, p.ToDownload())
	assert.Empty(t, p.ToRemove())
}

func TestNewRemovedRestrictedSong(t *testing.T) {
	f := newFixture()
	f.writeManifest(t, "PL1", "Chill", record("R", true))

	p := f.build(t, playlistInfo())

	assert.Equal(t, []string{"R"}, titles(p.ToRemove()))
	assert.True(t, p.ToRemove()[0].Restricted)
}

func TestNewDiscardsInvalidManifest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
	}{
		{
			name: "different id",
			setup: func(t *testing.T, f *fixture) {
				f.writeManifest(t, "PL2", "Chill", record("A", false))
			},
		},
		{
			name: "different name",
			setup: func(t *testing.T, f *fixture) {
				f.writeManifest(t, "PL1", "Other", record("A", false))
			},
		},
		{
			name: "corrupt",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, filepath.Join(testDir, manifest.FileName), []byte("not gob"), 0o644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(t, f)
			f.touch(t, "A.mp3")

			p := f.build(t, playlistInfo("A"))

			assert.Empty(t, p.Local())
			assert.Equal(t, []string{"A"}, titles(p.ToDownload()))
			assert.Equal(t, []string{"A.mp3"}, p.NonTracked())

			exists, err := afero.Exists(f.fs, p.ManifestPath())
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestNewMatchesNormalizedFileNames(t *testing.T) {
	title := "Café del Mar"
	tests := []struct {
		name     string
		recorded string
		onDisk   string
	}{
		{"nfd recorded, nfc on disk", norm.NFD.String(title), norm.NFC.String(title)},
		{"nfc recorded, nfd on disk", norm.NFC.String(title), norm.NFD.String(title)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, tt.recorded, tt.onDisk)

			f := newFixture()
			f.writeManifest(t, "PL1", "Chill", manifest.Record{ID: "cafe", Title: tt.recorded})
			f.touch(t, tt.onDisk+".mp3")

			info := playlistInfo()
			info.Entries = []*domain.Entry{{ID: "cafe", Title: tt.recorded}}
			p := f.build(t, info)

			require.Len(t, p.Synced(), 1)
			assert.Equal(t, filepath.Join(testDir, tt.onDisk+".mp3"), p.Synced()[0].FilePath)
			assert.Empty(t, p.NonTracked())
			assert.Empty(t, p.ToDownload())
		})
	}
}

func TestNewNonTracked(t *testing.T) {
	f := newFixture()
	f.writeManifest(t, "PL1", "Chill", record("A", false))
	f.touch(t, "A.mp3")
	f.touch(t, "stray.mp3")
	f.touch(t, "cover.jpg")
	require.NoError(t, f.fs.MkdirAll(filepath.Join(testDir, "nested.mp3"), 0o755))

	p := f.build(t, playlistInfo("A"))

	assert.Equal(t, []string{"stray.mp3"}, p.NonTracked())
}

func TestCheckIsIdempotent(t *testing.T) {
	f := newFixture()
	f.writeManifest(t, "PL1", "Chill", record("A", false), record("B", false), record("R", true))
	f.touch(t, "A.mp3")
	f.touch(t, "B.mp3")
	f.touch(t, "stray.mp3")
	before, err := afero.ReadFile(f.fs, filepath.Join(testDir, manifest.FileName))
	require.NoError(t, err)

	info := playlistInfo("A", "R", "D")
	first := f.build(t, info)
	second := f.build(t, info)

	assert.Equal(t, first.Reconciliation(), second.Reconciliation())
	assert.Equal(t, first.NonTracked(), second.NonTracked())

	after, err := afero.ReadFile(f.fs, filepath.Join(testDir, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	f.downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestFromID(t *testing.T) {
	f := newFixture()
	f.downloader.On("ResolvePlaylist", mock.Anything, "PL1").Return(playlistInfo("A"), nil)

	p, err := FromID(context.Background(), "PL1", testRoot, f.deps())
	require.NoError(t, err)
	assert.Equal(t, "Chill", p.Name)
	assert.Equal(t, []string{"A"}, titles(p.ToDownload()))
	f.downloader.AssertExpectations(t)
}

func TestFromIDResolveError(t *testing.T) {
	f := newFixture()
	resolveErr := errors.New("network down")
	f.downloader.On("ResolvePlaylist", mock.Anything, "PL1").Return(nil, resolveErr)

	_, err := FromID(context.Background(), "PL1", testRoot, f.deps())
	assert.ErrorIs(t, err, resolveErr)
}

func TestNewRequiresStorage(t *testing.T) {
	_, err := New(playlistInfo("A"), testRoot, Dependencies{})
	assert.Error(t, err)
}
