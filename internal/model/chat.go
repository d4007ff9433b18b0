package model

import "github.com/google/uuid"

// ChunkWindow is one token window of a prompt, sized for the embedding model.
// Text is always a verbatim substring of the chunked input.
type ChunkWindow struct {
	Text       string
	StartToken int
	EndToken   int
}

// SearchResult is one record returned by the vector index for a single
// embedding window. Rank is 1-based in the order the index returned it.
type SearchResult struct {
	SourceID uuid.UUID
	Rank     int
	Title    string
	Snippet  string
	Score    float32
}

// Source is the citable provenance of one context line, as sent to clients.
type Source struct {
	ID      int       `json:"id"`
	UUID    uuid.UUID `json:"uuid"`
	Title   string    `json:"title"`
	Snippet string    `json:"snippet"`
}

// AssembledContext is the merged, numbered context block for one question
// together with the sources backing each line, in emission order. Sources are
// intentionally not deduplicated; the same document may be cited under several
// local ranks when multiple windows retrieve it.
type AssembledContext struct {
	Text    string
	Sources []Source
}

type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}
