package playlist

import (
	"slices"

	"github.com/pavlin-policar/youtube-playlist/internal/domain"
)

// Reconciliation partitions the union of upstream and local song ids. Every
// id appears in exactly one group. All groups are sorted.
type Reconciliation struct {
	// Synced songs are present upstream and locally.
	Synced []string
	// Restricted songs are present upstream and locally but cannot be
	// downloaded.
	Restricted []string
	// ToRemove songs are only present locally.
	ToRemove []string
	// ToDownload songs are only present upstream.
	ToDownload []string
}

// Reconcile compares the upstream listing with the local state.
func Reconcile(upstream, local map[string]*domain.Song) Reconciliation {
	var r Reconciliation

	for id, song := range local {
		if _, ok := upstream[id]; !ok {
			r.ToRemove = append(r.ToRemove, id)
			continue
		}
		if song.Restricted {
			r.Restricted = append(r.Restricted, id)
		} else {
			r.Synced = append(r.Synced, id)
		}
	}

	for id := range upstream {
		if _, ok := local[id]; !ok {
			r.ToDownload = append(r.ToDownload, id)
		}
	}

	slices.Sort(r.Synced)
	slices.Sort(r.Restricted)
	slices.Sort(r.ToRemove)
	slices.Sort(r.ToDownload)

	return r
}

// Pending is the number of songs a sync would touch.
func (r Reconciliation) Pending() int {
	return len(r.ToRemove) + len(r.ToDownload)
}
