package progress

import (
	"sync"
)

// Stage represents the current stage of a sync
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageRemoving     Stage = "removing"
	StageDownloading  Stage = "downloading"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// Event represents a progress event
type Event struct {
	Stage        Stage
	Message      string
	TrackDetails *TrackDetails
	// Error is set on events of StageError.
	Error string
}

// TrackDetails contains information about the current track being processed
type TrackDetails struct {
	TrackNumber  int
	TotalTracks  int
	CurrentTrack string
}

// Listener receives progress events.
type Listener func(Event)

// ProgressTracker fans progress events out to listeners
type ProgressTracker struct {
	mu        sync.RWMutex
	stage     Stage
	listeners []Listener
}

// NewProgressTracker creates a new ProgressTracker instance
func NewProgressTracker(listeners ...Listener) *ProgressTracker {
	return &ProgressTracker{
		stage:     StageInitializing,
		listeners: listeners,
	}
}

// AddListener adds a new progress event listener
func (pt *ProgressTracker) AddListener(listener Listener) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.listeners = append(pt.listeners, listener)
}

// Stage returns the current stage.
func (pt *ProgressTracker) Stage() Stage {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.stage
}

// StartStage moves to a new stage and announces it with message.
func (pt *ProgressTracker) StartStage(stage Stage, message string) {
	pt.mu.Lock()
	pt.stage = stage
	pt.mu.Unlock()

	pt.notifyListeners(Event{
		Stage:   stage,
		Message: message,
	})
}

// UpdateTrackProgress reports that the track with the given 1-based number
// is being processed.
func (pt *ProgressTracker) UpdateTrackProgress(trackNumber, totalTracks int, currentTrack string) {
	pt.notifyListeners(Event{
		Stage: pt.Stage(),
		TrackDetails: &TrackDetails{
			TrackNumber:  trackNumber,
			TotalTracks:  totalTracks,
			CurrentTrack: currentTrack,
		},
	})
}

// Message reports an informational message within the current stage.
func (pt *ProgressTracker) Message(message string) {
	pt.notifyListeners(Event{
		Stage:   pt.Stage(),
		Message: message,
	})
}

// SetError sets an error state and notifies all listeners
func (pt *ProgressTracker) SetError(err error) {
	pt.mu.Lock()
	pt.stage = StageError
	pt.mu.Unlock()

	pt.notifyListeners(Event{
		Stage: StageError,
		Error: err.Error(),
	})
}

// notifyListeners sends an event to all registered listeners
func (pt *ProgressTracker) notifyListeners(event Event) {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	for _, listener := range pt.listeners {
		listener(event)
	}
}
