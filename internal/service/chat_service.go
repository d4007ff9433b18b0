package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ragserve/internal/chunker"
	"github.com/xxxsen/ragserve/internal/model"
	"github.com/xxxsen/ragserve/internal/ollama"
)

// answerTemplate instructs the model to answer from the supplied sources and
// cite them IEEE-style. The corpus behind the index is German.
const answerTemplate = "Basierend auf folgenden Informationen, beantworte bitte diese Frage und verwende die Quellen aus dem Kontext. Benutze die IEEE-Zitierweise wenn du eine Quelle in der Antwort verwendest. Frage: %s\n\nKontext (Quellen):\n%s"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, vector []float32, topK uint64, scoreThreshold *float32) ([]model.SearchResult, error)
}

type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResult, error)
}

// ChatService runs the retrieval-augmented answer pipeline: chunk the question,
// embed and search each chunk, assemble a cited context, generate the answer.
// Remote calls run sequentially; any failure aborts the whole call.
type ChatService struct {
	chunker     *chunker.Chunker
	embedder    Embedder
	searcher    Searcher
	generator   Generator
	topK        uint64
	scoreCutoff float32
}

func NewChatService(ch *chunker.Chunker, embedder Embedder, searcher Searcher, generator Generator, topK uint64, scoreCutoff float32) *ChatService {
	return &ChatService{
		chunker:     ch,
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		topK:        topK,
		scoreCutoff: scoreCutoff,
	}
}

// Answer handles a single-turn question with no session. Results below the
// configured score cutoff are filtered out by the index.
func (s *ChatService) Answer(ctx context.Context, prompt string) (*model.ChatResponse, error) {
	cutoff := s.scoreCutoff
	resp, _, err := s.answer(ctx, prompt, &cutoff, nil)
	return resp, err
}

type windowResults struct {
	window  model.ChunkWindow
	results []model.SearchResult
}

func (s *ChatService) answer(ctx context.Context, prompt string, scoreThreshold *float32, contextState []int64) (*model.ChatResponse, []int64, error) {
	logger := logutil.GetLogger(ctx)

	windows, err := s.chunker.Chunk(prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk prompt: %w", err)
	}

	perWindow := make([]windowResults, 0, len(windows))
	for _, window := range windows {
		vector, err := s.embedder.Embed(ctx, window.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("embed window [%d,%d): %w", window.StartToken, window.EndToken, err)
		}
		results, err := s.searcher.Search(ctx, vector, s.topK, scoreThreshold)
		if err != nil {
			return nil, nil, fmt.Errorf("search window [%d,%d): %w", window.StartToken, window.EndToken, err)
		}
		perWindow = append(perWindow, windowResults{window: window, results: results})
	}

	assembled := assemble(perWindow)
	logger.Debug("context assembled",
		zap.Int("windows", len(windows)),
		zap.Int("sources", len(assembled.Sources)),
	)

	result, err := s.generator.Generate(ctx, ollama.GenerateRequest{
		Prompt:  fmt.Sprintf(answerTemplate, prompt, assembled.Text),
		Context: contextState,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("generate answer: %w", err)
	}

	return &model.ChatResponse{
		Response: result.Response,
		Sources:  assembled.Sources,
	}, result.Context, nil
}

// assemble merges per-window search results into one numbered context block.
// Ranks are local to each window's result list, so the same number can appear
// once per window. Pure; malformed records were already rejected by the search
// client.
func assemble(perWindow []windowResults) model.AssembledContext {
	var text strings.Builder
	var sources []model.Source
	for _, wr := range perWindow {
		for _, r := range wr.results {
			fmt.Fprintf(&text, "\nQuelle [%d]: %s\n", r.Rank, r.Snippet)
			sources = append(sources, model.Source{
				ID:      r.Rank,
				UUID:    r.SourceID,
				Title:   r.Title,
				Snippet: r.Snippet,
			})
		}
	}
	return model.AssembledContext{Text: text.String(), Sources: sources}
}
