// Package cache provides the transcript cache that keeps expensive
// transcription work from being recomputed or re-charged.
package cache

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces a transcript for a source on cache miss.
type ComputeFunc func(ctx context.Context) (string, error)

// Store persists transcripts keyed by audio source identity. A store
// may be an in-memory map, a blob directory, or a database table; the
// cache's contract is the same over all of them.
type Store interface {
	// Get returns the stored transcript and whether it was present.
	Get(ctx context.Context, sourceID string) (string, bool, error)
	// Put stores a transcript under sourceID, overwriting any previous value.
	Put(ctx context.Context, sourceID, transcript string) error
}

// TranscriptCache implements get-or-compute over a Store with per-key
// single-flight: concurrent requesters of the same missing entry share
// one in-flight computation instead of each paying for transcription.
type TranscriptCache struct {
	store Store
	group singleflight.Group
	// warnings about persistence failures go here; never fatal
	logOut io.Writer
}

// New creates a TranscriptCache over the given store.
func New(store Store) *TranscriptCache {
	return &TranscriptCache{store: store, logOut: os.Stderr}
}

// SetLogOutput redirects persistence warnings, mainly for tests.
func (c *TranscriptCache) SetLogOutput(w io.Writer) {
	c.logOut = w
}

// GetOrCompute returns the cached transcript for sourceID, computing
// and persisting it on miss. A failed persistence write is logged and
// the freshly computed transcript is still returned: durability
// failure is non-fatal to the current request.
func (c *TranscriptCache) GetOrCompute(ctx context.Context, sourceID string, compute ComputeFunc) (string, error) {
	result, err, _ := c.group.Do(sourceID, func() (any, error) {
		if transcript, ok, err := c.store.Get(ctx, sourceID); err != nil {
			fmt.Fprintf(c.logOut, "Warning: transcript cache read failed for %s: %v\n", sourceID, err)
		} else if ok {
			return transcript, nil
		}

		transcript, err := compute(ctx)
		if err != nil {
			return "", err
		}

		if err := c.store.Put(ctx, sourceID, transcript); err != nil {
			fmt.Fprintf(c.logOut, "Warning: transcript cache write failed for %s: %v\n", sourceID, err)
		}
		return transcript, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
