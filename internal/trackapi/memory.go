package trackapi

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
)

// Memory is an in-process TrackAPI seeded with fixtures.
type Memory struct {
	mu      sync.RWMutex
	tracks  []*Track
	authors map[string]*Author
}

var _ TrackAPI = (*Memory)(nil)

// Fixtures is the YAML layout read by LoadMemory.
type Fixtures struct {
	Tracks  []*Track  `yaml:"tracks"`
	Authors []*Author `yaml:"authors"`
}

func NewMemory(tracks []*Track, authors []*Author) *Memory {
	m := &Memory{authors: make(map[string]*Author, len(authors))}
	m.tracks = append(m.tracks, tracks...)
	for _, a := range authors {
		m.authors[a.ID] = a
	}
	return m
}

// LoadMemory reads a fixture file.
func LoadMemory(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trackapi: read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures.
func ParseFixtures(data []byte) (*Memory, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("trackapi: parse fixtures: %w", err)
	}
	return NewMemory(f.Tracks, f.Authors), nil
}

// GetTracksForHome returns a copy of the tracks, empty but non-nil when
// there are none.
func (m *Memory) GetTracksForHome(ctx context.Context) ([]*Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Track, 0, len(m.tracks))
	return append(out, m.tracks...), nil
}

// GetAuthor returns nil for an unknown id.
func (m *Memory) GetAuthor(ctx context.Context, authorID string) (*Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authors[authorID], nil
}

// PutTrack appends a track, or replaces the track with the same id.
func (m *Memory) PutTrack(t *Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.tracks {
		if existing.ID == t.ID {
			m.tracks[i] = t
			return
		}
	}
	m.tracks = append(m.tracks, t)
}

// PutAuthor adds or replaces an author.
func (m *Memory) PutAuthor(a *Author) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[a.ID] = a
}
