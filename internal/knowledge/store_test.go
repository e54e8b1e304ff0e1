package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentaxai/gentax/internal/log"
)

func writeKBFile(t *testing.T, dir, name, text string) {
	t.Helper()
	doc := fmt.Sprintf(`{"text": %q}`, text)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644))
}

// longText pads base with filler so the snippet clears the minimum-length
// filter without adding scoring tokens that collide with other fixtures.
func longText(base string) string {
	return base + " " + strings.Repeat("filler padding words here ", 12)
}

func TestSearch_MissingDirIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope"), log.NewNop())

	got, err := s.Search(context.Background(), "gst rate", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_RanksByTermFrequency(t *testing.T) {
	dir := t.TempDir()
	writeKBFile(t, dir, "gst.json", longText("gst gst gst goods and services tax"))
	writeKBFile(t, dir, "income.json", longText("income tax slabs and deductions"))

	s := NewStore(dir, log.NewNop())
	got, err := s.Search(context.Background(), "gst", 5)
	require.NoError(t, err)

	require.NotEmpty(t, got)
	assert.Equal(t, "gst.json", got[0].Source)
	assert.Equal(t, 0, got[0].ChunkID)
}

func TestSearch_NoMatchingTokens(t *testing.T) {
	dir := t.TempDir()
	writeKBFile(t, dir, "gst.json", longText("goods and services tax"))

	s := NewStore(dir, log.NewNop())

	got, err := s.Search(context.Background(), "zzzunknownzzz", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Search(context.Background(), "!!! ???", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_RespectsK(t *testing.T) {
	dir := t.TempDir()
	for i := range 5 {
		writeKBFile(t, dir, fmt.Sprintf("doc%d.json", i), longText("tax tax tax"))
	}

	s := NewStore(dir, log.NewNop())
	got, err := s.Search(context.Background(), "tax", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch_ShortSnippetFallback(t *testing.T) {
	dir := t.TempDir()
	// Only match is well under the length filter; it must still be returned.
	writeKBFile(t, dir, "short.json", "cess surcharge")

	s := NewStore(dir, log.NewNop())
	got, err := s.Search(context.Background(), "cess", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "short.json", got[0].Source)
}

func TestLoad_SkipsNonJSONAndInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeKBFile(t, dir, "good.json", longText("capital gains tax"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("capital"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.json"), []byte{0xff, 0xfe, 0x00}, 0o644))

	s := NewStore(dir, log.NewNop())
	got, err := s.Search(context.Background(), "capital", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good.json", got[0].Source)
}

func TestLoad_RawTextAndFlattenedJSON(t *testing.T) {
	dir := t.TempDir()
	// Not valid JSON: indexed as raw text.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw.json"),
		[]byte("tds deducted at source "+strings.Repeat("pad ", 80)), 0o644))
	// Valid JSON without a "text" field: flattened.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.json"),
		[]byte(`["advance tax installment schedule"]`), 0o644))

	s := NewStore(dir, log.NewNop())

	got, err := s.Search(context.Background(), "tds", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "raw.json", got[0].Source)

	got, err = s.Search(context.Background(), "installment", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "list.json", got[0].Source)
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	writeKBFile(t, dir, "a.json", longText("one"))
	writeKBFile(t, dir, "b.json", longText("two"))

	s := NewStore(dir, log.NewNop())
	sources, chunks, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, sources)
	assert.Equal(t, 2, chunks)
}

func TestSplitChunks_Overlap(t *testing.T) {
	words := make([]string, chunkWords+100)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks := splitChunks(strings.Join(words, " "))

	require.Len(t, chunks, 2)
	// Second chunk starts overlapWords before the end of the first.
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[chunkWords-overlapWords], second[0])
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("a b\n\tc"))
	assert.Equal(t, "spaced out", cleanText("  spaced \t\n  out  "))
}

func TestScore_LengthNormalization(t *testing.T) {
	short := []string{"gst", "rate"}
	long := append([]string{"gst", "rate"}, make([]string, 10000)...)
	for i := 2; i < len(long); i++ {
		long[i] = "pad"
	}

	q := []string{"gst"}
	assert.Greater(t, score(q, short), score(q, long))
	assert.Zero(t, score(q, nil))
}
