package domain

import "context"

// ProgressStore loads and persists playback progress
type ProgressStore interface {
	Get(ctx context.Context, key ProgressKey) (*ProgressRecord, error)
	Save(ctx context.Context, key ProgressKey, contentType ContentType, watchTime, duration float64) error
}

// ViewCounter records a playback start against a title
type ViewCounter interface {
	IncrementViewCount(ctx context.Context, contentType ContentType, id string) error
}
