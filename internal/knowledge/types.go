package knowledge

// Snippet is one retrieved knowledge-base chunk with provenance.
type Snippet struct {
	// Source is the knowledge-base file the chunk came from.
	Source string `json:"source"`

	// ChunkID is the zero-based position of the chunk within its source.
	ChunkID int `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// chunk is a Snippet with its precomputed token list, kept internal to
// avoid exposing scoring state.
type chunk struct {
	Snippet
	tokens []string
}
