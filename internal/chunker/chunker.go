package chunker

import (
	"fmt"
	"unicode"

	"github.com/xxxsen/ragserve/internal/model"
)

// Chunker splits text into overlapping token windows sized for the embedding
// model's input limit. Tokens are maximal non-whitespace runs; every window
// carries the verbatim substring of the input spanning its tokens, so chunked
// text is never a re-joined reconstruction.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

type token struct {
	start int // byte offset of first rune
	end   int // byte offset past last rune
}

func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(text)})
	}
	return tokens
}

// Chunk eagerly materializes all windows of text. Input fitting into a single
// window is returned unchanged; otherwise the window start advances by
// size-overlap tokens per step, so consecutive windows share exactly overlap
// tokens, until a window end reaches the token count.
func (c *Chunker) Chunk(text string) ([]model.ChunkWindow, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) <= c.size {
		return []model.ChunkWindow{{Text: text, StartToken: 0, EndToken: len(tokens)}}, nil
	}

	step := c.size - c.overlap
	var windows []model.ChunkWindow
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, model.ChunkWindow{
			Text:       text[tokens[start].start:tokens[end-1].end],
			StartToken: start,
			EndToken:   end,
		})
		if end == len(tokens) {
			break
		}
	}
	return windows, nil
}
