// Package latents caches per-speaker voice-conditioning data.
//
// Conditioning extraction is seconds-scale, so results are memoized by
// speaker display name for the lifetime of the process. There is no
// eviction: conditioning data is small relative to model weights and
// speaker counts are modest. Entries are never invalidated, even if the
// underlying reference audio changes after first use; that staleness risk
// is accepted behavior.
package latents

import (
	"context"
	"sync"

	"github.com/book-expert/logger"
	"golang.org/x/sync/singleflight"

	"github.com/book-expert/xtts-service/internal/core"
)

// Cache memoizes conditioning data computed by a local model.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]core.Conditioning
	group   singleflight.Group
	model   core.LocalModel
	log     *logger.Logger
}

// New creates an empty cache backed by the given model.
func New(model core.LocalModel, log *logger.Logger) *Cache {
	return &Cache{
		entries: make(map[string]core.Conditioning),
		model:   model,
		log:     log,
	}
}

// GetOrCreate returns the conditioning data for a speaker, computing and
// storing it on first use. Concurrent callers for the same uncached speaker
// share a single extraction: only one triggers the model, the rest wait for
// its result. Extraction errors are returned unchanged and nothing is
// cached for the speaker.
func (c *Cache) GetOrCreate(
	ctx context.Context,
	speakerName string,
	references []string,
) (core.Conditioning, error) {
	cond, ok := c.lookup(speakerName)
	if ok {
		return cond, nil
	}

	value, err, _ := c.group.Do(speakerName, func() (any, error) {
		// A previous flight may have populated the entry between the
		// lookup above and acquiring the flight.
		cached, found := c.lookup(speakerName)
		if found {
			return cached, nil
		}

		c.log.Info("creating latents for %s: %v", speakerName, references)

		created, extractErr := c.model.ExtractConditioning(ctx, references)
		if extractErr != nil {
			return core.Conditioning{}, extractErr
		}

		c.store(speakerName, created)

		return created, nil
	})
	if err != nil {
		return core.Conditioning{}, err
	}

	result, ok := value.(core.Conditioning)
	if !ok {
		return core.Conditioning{}, nil
	}

	return result, nil
}

// Len returns the number of cached speakers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) lookup(speakerName string) (core.Conditioning, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cond, ok := c.entries[speakerName]

	return cond, ok
}

func (c *Cache) store(speakerName string, cond core.Conditioning) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[speakerName] = cond
}
