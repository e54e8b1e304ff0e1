// Package chat assembles conversations for the LLM: it resolves the
// session transcript, injects retrieved knowledge as a synthetic context
// turn, submits the full ordered transcript, and records the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gentaxai/gentax/internal/knowledge"
	"github.com/gentaxai/gentax/internal/log"
	"github.com/gentaxai/gentax/internal/session"
)

// SystemPrompt seeds every new session as its first and only system turn.
const SystemPrompt = `You are GenTax, a precise and helpful Indian tax assistant.
You specialize in Indian taxation including Income Tax, GST, and other tax-related matters.
Provide accurate, clear, and actionable advice. If you're unsure about something,
recommend consulting a tax professional. Keep responses concise but comprehensive.`

// Retrieval depth bounds applied to every request.
const (
	MinTopK = 1
	MaxTopK = 10
)

var (
	// ErrEmptyQuestion indicates a question that is empty after trimming.
	// No external call is made and no state is mutated.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrCompletion wraps any failure from the LLM completer.
	ErrCompletion = errors.New("LLM error")
)

// Retriever fetches ranked knowledge snippets for a query. Implementations
// may fail for any reason; the assembler treats every retrieval error as
// "no results" (fail-open).
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Snippet, error)
}

// Completer submits an ordered transcript to the LLM and returns its reply.
type Completer interface {
	Complete(ctx context.Context, turns []session.Turn) (string, error)
}

// Input is one chat request.
type Input struct {
	// Question is the user's message. Must be non-empty after trimming.
	Question string

	// SessionID selects the conversation. Empty generates a fresh id.
	SessionID string

	// TopK is the retrieval depth, clamped into [MinTopK, MaxTopK].
	// It is consulted only when TopKSet is true; otherwise the configured
	// default applies. The split matters: a caller-supplied 0 or negative
	// clamps to MinTopK rather than falling back to the default.
	TopK    int
	TopKSet bool
}

// Output is the result of a successful chat exchange.
type Output struct {
	Answer    string
	SessionID string
	Citations []Citation
}

// Citation identifies a retrieved snippet that was injected as context.
// Produced per call, never persisted.
type Citation struct {
	// ID is the 1-based rank of the snippet, as a string.
	ID      string `json:"id"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

// Config contains the required dependencies for a Service.
type Config struct {
	Sessions    *session.Store
	Retriever   Retriever
	Completer   Completer
	Logger      log.Logger
	DefaultTopK int
}

func (cfg Config) validate() error {
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	return nil
}

// Service is the conversation assembler. It is stateless apart from the
// injected session store and safe for concurrent use.
type Service struct {
	sessions    *session.Store
	retriever   Retriever
	completer   Completer
	logger      log.Logger
	defaultTopK int
}

// New creates a Service with the given dependencies.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	defaultTopK := cfg.DefaultTopK
	if defaultTopK < MinTopK || defaultTopK > MaxTopK {
		defaultTopK = 5
	}

	return &Service{
		sessions:    cfg.Sessions,
		retriever:   cfg.Retriever,
		completer:   cfg.Completer,
		logger:      logger,
		defaultTopK: defaultTopK,
	}, nil
}

// retrieval is the outcome of a knowledge lookup. Degraded distinguishes
// "the retriever failed" from "no results" so logs and future callers can
// tell them apart; both produce an answer without citations.
type retrieval struct {
	snippets []knowledge.Snippet
	degraded bool
}

// Ask runs one chat exchange: resolve the session, retrieve context,
// submit the transcript, record and persist the reply.
//
// On completer failure the user turn (and any context turn) remain in the
// in-memory transcript but nothing is persisted; the failed question is
// replayed to the model on the next attempt in the same session.
func (s *Service) Ask(ctx context.Context, in Input) (Output, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return Output{}, ErrEmptyQuestion
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.sessions.GetOrCreate(sessionID, SystemPrompt)

	ret := s.retrieve(ctx, question, s.clampTopK(in.TopK, in.TopKSet))

	var citations []Citation
	if len(ret.snippets) > 0 {
		block, cites := formatContext(ret.snippets)
		if err := s.sessions.Append(sessionID, session.RoleAssistant, block); err != nil {
			return Output{}, fmt.Errorf("appending context turn: %w", err)
		}
		citations = cites
	}

	if err := s.sessions.Append(sessionID, session.RoleUser, question); err != nil {
		return Output{}, fmt.Errorf("appending user turn: %w", err)
	}

	turns, _ := s.sessions.Turns(sessionID)
	answer, err := s.completer.Complete(ctx, turns)
	if err != nil {
		s.logger.Error("completion failed", "session_id", sessionID, "error", err)
		return Output{}, fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	if err := s.sessions.Append(sessionID, session.RoleAssistant, answer); err != nil {
		return Output{}, fmt.Errorf("appending assistant turn: %w", err)
	}

	if err := s.sessions.Persist(); err != nil {
		// The exchange succeeded; losing one persist is recoverable on
		// the next, so log instead of failing the request.
		s.logger.Error("failed to persist sessions", "error", err)
	}

	return Output{Answer: answer, SessionID: sessionID, Citations: citations}, nil
}

// retrieve performs the knowledge lookup, converting any error into a
// degraded-empty result.
func (s *Service) retrieve(ctx context.Context, question string, topK int) retrieval {
	snippets, err := s.retriever.Search(ctx, question, topK)
	if err != nil {
		s.logger.Warn("retrieval failed, continuing without context",
			"error", err, "query_length", len(question))
		return retrieval{degraded: true}
	}
	return retrieval{snippets: snippets}
}

// clampTopK bounds a caller-supplied k into [MinTopK, MaxTopK]. An unset
// value selects the configured default.
func (s *Service) clampTopK(k int, set bool) int {
	if !set {
		return s.defaultTopK
	}
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// CoerceTopK interprets a loosely-typed top_k value from a JSON request.
// Numeric types are converted and numeric strings parsed, reported with
// ok=true even when out of range (the assembler clamps them). Absent or
// non-numeric input reports ok=false, which selects the default downstream.
func CoerceTopK(v any) (k int, ok bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// formatContext renders snippets into a single labeled context block and
// the parallel citation list. A snippet without a source is attributed to
// "knowledge_base".
func formatContext(snippets []knowledge.Snippet) (string, []Citation) {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")

	citations := make([]Citation, 0, len(snippets))
	for i, sn := range snippets {
		rank := i + 1
		source := sn.Source
		if source == "" {
			source = "knowledge_base"
		}

		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s#chunk%d\n%s", rank, source, sn.ChunkID, sn.Text)

		citations = append(citations, Citation{
			ID:      fmt.Sprintf("%d", rank),
			Source:  source,
			ChunkID: sn.ChunkID,
		})
	}

	return b.String(), citations
}
