package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gentaxai/gentax/internal/log"
)

// Chunking and scoring parameters. Chunks are word windows; scores are
// query-term frequencies normalized by document length.
const (
	chunkWords   = 1200
	overlapWords = 160
	lengthNorm   = 5000.0

	// minSnippetChars filters out fragments too short to be useful,
	// unless that would empty the result entirely.
	minSnippetChars = 250
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	tokenRe = regexp.MustCompile(`[a-z0-9]+`)
)

// Store holds the tokenized knowledge base for keyword search.
//
// Store is safe for concurrent use; the corpus is immutable after the
// one-time load.
type Store struct {
	dir    string
	logger log.Logger

	once    sync.Once
	loadErr error
	items   []chunk
}

// NewStore creates a Store over the given knowledge directory. The corpus
// is loaded lazily on first use.
func NewStore(dir string, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Load forces the one-time corpus load. Search calls it implicitly; the kb
// CLI calls it eagerly to report stats.
func (s *Store) Load() error {
	s.once.Do(s.load)
	return s.loadErr
}

func (s *Store) load() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("knowledge directory not found, retrieval disabled", "dir", s.dir)
			return
		}
		s.loadErr = err
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable knowledge file", "file", name, "error", err)
			continue
		}
		if !utf8.Valid(data) {
			s.logger.Warn("skipping non-UTF8 knowledge file", "file", name)
			continue
		}

		text := extractText(data)
		for i, c := range splitChunks(cleanText(text)) {
			s.items = append(s.items, chunk{
				Snippet: Snippet{Source: name, ChunkID: i, Text: c},
				tokens:  tokenize(c),
			})
		}
	}

	s.logger.Info("loaded knowledge base", "dir", s.dir, "chunks", len(s.items))
}

// extractText pulls searchable text from a knowledge file: the "text" field
// of a JSON object when present, otherwise the whole document flattened.
// Files that are not valid JSON are indexed as raw text.
func extractText(data []byte) string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return string(data)
	}

	if obj, ok := doc.(map[string]any); ok {
		if t, ok := obj["text"].(string); ok {
			return t
		}
	}

	// Best-effort flatten of structured documents.
	flat, err := json.Marshal(doc)
	if err != nil {
		return string(data)
	}
	return string(flat)
}

// Search returns the top k snippets matching query, ranked by score.
// A query with no indexable tokens returns no results. The context is
// accepted for interface symmetry with remote retrievers; the in-memory
// scan does not block on it.
func (s *Store) Search(_ context.Context, query string, k int) ([]Snippet, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		score float64
		chunk chunk
	}
	var matches []scored
	for _, item := range s.items {
		if sc := score(queryTokens, item.tokens); sc > 0 {
			matches = append(matches, scored{score: sc, chunk: item})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if k < 1 {
		k = 1
	}
	if len(matches) > k {
		matches = matches[:k]
	}

	top := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		top = append(top, m.chunk.Snippet)
	}

	// Prefer substantial snippets; fall back to the raw ranking if the
	// length filter would discard everything.
	filtered := make([]Snippet, 0, len(top))
	for _, sn := range top {
		if len(sn.Text) >= minSnippetChars {
			filtered = append(filtered, sn)
		}
	}
	if len(filtered) > 0 {
		return filtered, nil
	}
	return top, nil
}

// Stats returns the number of distinct sources and total chunks loaded.
func (s *Store) Stats() (sources, chunks int, err error) {
	if err := s.Load(); err != nil {
		return 0, 0, err
	}
	seen := make(map[string]struct{})
	for _, item := range s.items {
		seen[item.Source] = struct{}{}
	}
	return len(seen), len(s.items), nil
}

func cleanText(text string) string {
	replacer := strings.NewReplacer("\u00a0", " ", "\n", " ", "\t", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(replacer.Replace(text), " "))
}

// splitChunks splits text into windows of chunkWords words with
// overlapWords words of overlap between consecutive windows.
func splitChunks(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(words); {
		end := min(i+chunkWords, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
		i = max(0, end-overlapWords)
	}
	return chunks
}

func tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}

// score sums the document frequency of each query token, normalized so
// very long chunks do not dominate on raw term counts.
func score(queryTokens, docTokens []string) float64 {
	if len(docTokens) == 0 {
		return 0
	}
	freq := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		freq[t]++
	}
	var sum float64
	for _, qt := range queryTokens {
		sum += float64(freq[qt])
	}
	return sum / (1.0 + float64(len(docTokens))/lengthNorm)
}
