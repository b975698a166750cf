// Package index is the in-memory chunk store. A reload fills a Builder and
// publishes it as an immutable Snapshot; readers always see a complete snapshot.
package index

import (
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/lawdesk/internal/statute"
)

// Builder accumulates chunks for the next snapshot. It is not safe for
// concurrent use; one reload owns one Builder.
type Builder struct {
	chunks []statute.Chunk
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends c in discovery order.
func (b *Builder) Add(c statute.Chunk) {
	b.chunks = append(b.chunks, c)
}

// Clear drops everything added so far.
func (b *Builder) Clear() {
	b.chunks = nil
}

func (b *Builder) Len() int {
	return len(b.chunks)
}

// Snapshot freezes the builder's contents. Later Adds do not affect it.
func (b *Builder) Snapshot(generation uint64) *Snapshot {
	return newSnapshot(slices.Clone(b.chunks), generation)
}

// Snapshot is an immutable, ordered view of every chunk from one reload.
type Snapshot struct {
	chunks     []statute.Chunk
	byID       map[string]int
	generation uint64
	builtAt    time.Time
}

func newSnapshot(chunks []statute.Chunk, generation uint64) *Snapshot {
	s := &Snapshot{
		chunks:     chunks,
		byID:       make(map[string]int, len(chunks)),
		generation: generation,
		builtAt:    time.Now(),
	}
	for i, c := range chunks {
		if c.ID == "" {
			continue
		}
		if _, dup := s.byID[c.ID]; !dup {
			s.byID[c.ID] = i
		}
	}
	return s
}

// Empty returns a snapshot with no chunks, generation zero.
func Empty() *Snapshot {
	return newSnapshot(nil, 0)
}

func (s *Snapshot) Len() int           { return len(s.chunks) }
func (s *Snapshot) Generation() uint64 { return s.generation }
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// All returns every chunk in store order.
func (s *Snapshot) All() []statute.Chunk {
	return slices.Clone(s.chunks)
}

// ByCategory returns the chunks of one category; an empty category matches all.
func (s *Snapshot) ByCategory(category string) []statute.Chunk {
	if category == "" {
		return s.All()
	}
	var out []statute.Chunk
	for _, c := range s.chunks {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// ByID looks up a chunk by its exact identifier.
func (s *Snapshot) ByID(id string) (statute.Chunk, bool) {
	i, ok := s.byID[id]
	if !ok {
		return statute.Chunk{}, false
	}
	return s.chunks[i], true
}

// WithoutArticleTitle returns chunks whose title is blank. The chunker repairs
// titles, so a non-empty result means something bypassed it.
func (s *Snapshot) WithoutArticleTitle() []statute.Chunk {
	var out []statute.Chunk
	for _, c := range s.chunks {
		if strings.TrimSpace(c.ArticleTitle) == "" {
			out = append(out, c)
		}
	}
	return out
}

// TitleRef pairs an article title with the identifier of the first chunk
// carrying it.
type TitleRef struct {
	Title string `json:"title"`
	ID    string `json:"chunk_id"`
}

// ArticleTitles maps article titles to chunk identifiers for one category
// (empty = all) restricted to fileNames (empty = all files). Results are in
// first-seen order and a title that repeats keeps its first chunk only. Blank
// titles are left out.
func (s *Snapshot) ArticleTitles(category string, fileNames []string) []TitleRef {
	fileNames = composeAll(fileNames)
	seen := make(map[string]bool)
	var out []TitleRef
	for _, c := range s.chunks {
		if !matches(c, category, fileNames) {
			continue
		}
		if strings.TrimSpace(c.ArticleTitle) == "" || seen[c.ArticleTitle] {
			continue
		}
		seen[c.ArticleTitle] = true
		out = append(out, TitleRef{Title: c.ArticleTitle, ID: c.ID})
	}
	return out
}

// ChunksByArticleTitles returns every chunk in category (empty = all) whose
// title is one of titles, in store order. Unlike ArticleTitles, chunks that
// share a title are all returned.
func (s *Snapshot) ChunksByArticleTitles(titles []string, category string) []statute.Chunk {
	if len(titles) == 0 {
		return nil
	}
	want := make(map[string]bool, len(titles))
	for _, t := range titles {
		want[t] = true
	}
	var out []statute.Chunk
	for _, c := range s.chunks {
		if want[c.ArticleTitle] && matches(c, category, nil) {
			out = append(out, c)
		}
	}
	return out
}

// Files returns the distinct source files in store order.
func (s *Snapshot) Files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range s.chunks {
		if !seen[c.FileName] {
			seen[c.FileName] = true
			out = append(out, c.FileName)
		}
	}
	return out
}

// composeAll NFC-composes file names so callers may pass names as listed on a
// file system that stores decomposed Hangul.
func composeAll(names []string) []string {
	if len(names) == 0 {
		return names
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = norm.NFC.String(n)
	}
	return out
}

func matches(c statute.Chunk, category string, fileNames []string) bool {
	if category != "" && c.Category != category {
		return false
	}
	if len(fileNames) > 0 && !slices.Contains(fileNames, c.FileName) {
		return false
	}
	return true
}

// Index holds the current snapshot. Load is lock-free; Publish is expected to
// be called by one reload at a time.
type Index struct {
	current atomic.Pointer[Snapshot]
}

func New() *Index {
	ix := &Index{}
	ix.current.Store(Empty())
	return ix
}

// Load returns the current snapshot, never nil.
func (ix *Index) Load() *Snapshot {
	return ix.current.Load()
}

// Publish freezes b as the next generation and makes it current. It returns
// the new snapshot.
func (ix *Index) Publish(b *Builder) *Snapshot {
	next := b.Snapshot(ix.Load().Generation() + 1)
	ix.current.Store(next)
	return next
}
