// Package playlist keeps a local playlist directory in sync with its
// upstream listing.
package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
	"github.com/pavlin-policar/youtube-playlist/internal/downloader"
	"github.com/pavlin-policar/youtube-playlist/internal/manifest"
	"github.com/pavlin-policar/youtube-playlist/internal/notify"
	"github.com/pavlin-policar/youtube-playlist/internal/progress"
	"github.com/pavlin-policar/youtube-playlist/internal/storage"
)

// Dependencies are the collaborators a Playlist works with. Downloader and
// Storage are required; the rest default to no-ops.
type Dependencies struct {
	Downloader downloader.Downloader
	Storage    storage.Storage
	Notifier   notify.Notifier
	Progress   *progress.ProgressTracker
	Logger     *slog.Logger
}

// Playlist is the state of one playlist for the duration of an invocation.
// The reconciliation groups are computed once, when the playlist is built.
type Playlist struct {
	ID        string
	Name      string
	Uploader  string
	Directory string

	upstream      map[string]*domain.Song
	upstreamOrder []string
	local         map[string]*domain.Song
	nonTracked    []string

	reconciliation Reconciliation
	synced         []*domain.Song
	restricted     []*domain.Song
	toRemove       []*domain.Song
	toDownload     []*domain.Song

	store      *manifest.Store
	storage    storage.Storage
	downloader downloader.Downloader
	notifier   notify.Notifier
	progress   *progress.ProgressTracker
	log        *slog.Logger
}

// FromID resolves the playlist upstream and builds it inside root.
func FromID(ctx context.Context, id, root string, deps Dependencies) (*Playlist, error) {
	if deps.Downloader == nil {
		return nil, fmt.Errorf("playlist %s: no downloader configured", id)
	}
	info, err := deps.Downloader.ResolvePlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve playlist %s: %w", id, err)
	}
	return New(info, root, deps)
}

// New builds a playlist from its upstream listing. The playlist lives in
// root/<sanitized title>. The local manifest is loaded and validated against the files
// on disk; corrupt or stale manifests are removed.
func New(info *domain.PlaylistInfo, root string, deps Dependencies) (*Playlist, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("playlist %s: no storage configured", info.ID)
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Progress == nil {
		deps.Progress = progress.NewProgressTracker()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	// Name stays the raw title; it identifies the manifest.
	directory := filepath.Join(root, domain.SanitizeTitle(info.Title))
	p := &Playlist{
		ID:         info.ID,
		Name:       info.Title,
		Uploader:   info.Uploader,
		Directory:  directory,
		upstream:   make(map[string]*domain.Song, len(info.Entries)),
		store:      manifest.NewStore(deps.Storage, filepath.Join(directory, manifest.FileName)),
		storage:    deps.Storage,
		downloader: deps.Downloader,
		notifier:   deps.Notifier,
		progress:   deps.Progress,
		log:        deps.Logger.With("playlist", info.Title),
	}

	for _, entry := range info.Entries {
		if _, ok := p.upstream[entry.ID]; ok {
			continue
		}
		p.upstream[entry.ID] = domain.NewSong(entry.ID, entry.Title, entry.URL, p.Name, p.Directory)
		p.upstreamOrder = append(p.upstreamOrder, entry.ID)
	}

	local, err := p.loadLocal()
	if err != nil {
		return nil, err
	}
	p.local = local

	if p.nonTracked, err = p.scanNonTracked(); err != nil {
		return nil, err
	}

	p.reconcile()
	return p, nil
}

// ManifestPath returns the location of the playlist's manifest.
func (p *Playlist) ManifestPath() string {
	return p.store.Path()
}

// loadLocal reads the manifest and keeps the songs that are still present on
// disk, or that were never downloadable in the first place.
func (p *Playlist) loadLocal() (map[string]*domain.Song, error) {
	local := make(map[string]*domain.Song)

	result, err := p.store.Load(p.ID, p.Name)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case manifest.StatusEmpty:
		p.log.Info("data file not found, assuming empty local data", "path", p.store.Path())
		return local, nil
	case manifest.StatusCorrupt:
		p.log.Warn("unable to read data file, removing", "path", p.store.Path())
		return local, p.store.Discard()
	case manifest.StatusStale:
		p.log.Warn("data file contains data for a different playlist, removing", "path", p.store.Path())
		return local, p.store.Discard()
	}

	for id, record := range result.Manifest.Songs {
		song := domain.NewSong(record.ID, record.Title, record.URL, p.Name, p.Directory)
		song.Restricted = record.Restricted

		if song.Restricted || p.storage.FileExists(song.FilePath) {
			local[id] = song
			continue
		}

		// The file system may report the name in a different Unicode
		// normalization form than the one it was recorded with.
		name, ok, err := p.storage.FindNormalized(p.Directory, song.FileName())
		if err != nil {
			return nil, err
		}
		if ok {
			song.FilePath = filepath.Join(p.Directory, name)
			local[id] = song
			p.log.Info("matched track with normalized file name", "title", song.Title, "file", name)
			continue
		}

		p.log.Info("track found in data file but not on disk, dropping", "title", song.Title)
	}

	return local, nil
}

// scanNonTracked lists audio files in the playlist directory that no local
// song points to.
func (p *Playlist) scanNonTracked() ([]string, error) {
	files, err := p.storage.ListAudioFiles(p.Directory)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool, len(p.local))
	for _, song := range p.local {
		tracked[song.FileName()] = true
	}

	nonTracked := make([]string, 0)
	for _, file := range files {
		if !tracked[file] {
			nonTracked = append(nonTracked, file)
		}
	}
	return nonTracked, nil
}

func (p *Playlist) reconcile() {
	p.reconciliation = Reconcile(p.upstream, p.local)

	p.synced = p.lookup(p.local, p.reconciliation.Synced)
	p.restricted = p.lookup(p.local, p.reconciliation.Restricted)
	p.toRemove = p.lookup(p.local, p.reconciliation.ToRemove)

	// Downloads follow the upstream playlist order.
	pending := make(map[string]bool, len(p.reconciliation.ToDownload))
	for _, id := range p.reconciliation.ToDownload {
		pending[id] = true
	}
	p.toDownload = make([]*domain.Song, 0, len(pending))
	for _, id := range p.upstreamOrder {
		if pending[id] {
			p.toDownload = append(p.toDownload, p.upstream[id])
		}
	}
}

func (p *Playlist) lookup(songs map[string]*domain.Song, ids []string) []*domain.Song {
	result := make([]*domain.Song, 0, len(ids))
	for _, id := range ids {
		result = append(result, songs[id])
	}
	return result
}

// Reconciliation returns the id groups computed when the playlist was built.
func (p *Playlist) Reconciliation() Reconciliation {
	return p.reconciliation
}

// Synced returns songs that are downloaded and still listed upstream.
func (p *Playlist) Synced() []*domain.Song {
	return p.synced
}

// Restricted returns songs listed upstream that cannot be downloaded.
func (p *Playlist) Restricted() []*domain.Song {
	return p.restricted
}

// ToRemove returns local songs that are no longer listed upstream.
func (p *Playlist) ToRemove() []*domain.Song {
	return p.toRemove
}

// ToDownload returns upstream songs that are not available locally.
func (p *Playlist) ToDownload() []*domain.Song {
	return p.toDownload
}

// NonTracked returns names of audio files on disk that are not tracked.
func (p *Playlist) NonTracked() []string {
	return p.nonTracked
}

// Local returns the currently tracked songs keyed by id.
func (p *Playlist) Local() map[string]*domain.Song {
	return p.local
}

// toManifest converts the local songs into their persisted form.
func (p *Playlist) toManifest() *manifest.Manifest {
	m := manifest.New(p.ID, p.Name)
	for id, song := range p.local {
		m.Songs[id] = manifest.Record{
			ID:         song.ID,
			Title:      song.Title,
			URL:        song.URL,
			Restricted: song.Restricted,
		}
	}
	return m
}

func (p *Playlist) saveManifest() error {
	return p.store.Save(p.toManifest())
}
