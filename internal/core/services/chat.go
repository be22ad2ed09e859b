package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// Ensure ChatOrchestrator implements the interface.
var _ driving.ChatService = (*ChatOrchestrator)(nil)

// Default generation configuration.
const (
	defaultMaxAnswerTokens = 1024
	defaultTemperature     = 0.1

	// chatEventBuffer smooths token forwarding to slow consumers.
	chatEventBuffer = 32

	// recordTimeout bounds history persistence after a completed stream.
	recordTimeout = 10 * time.Second
)

// markerPattern matches the bracketed reference markers the answer
// prompt instructs the model to emit per claim, e.g. "[2]".
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// ChatOrchestrator answers conversational turns: retrieve, assemble a
// bounded context, stream the generation, and map emitted reference
// markers back to the chunks they were assembled from. Synchronous
// failures (busy session, empty namespace) surface before any stream
// starts; a failed or cancelled generation records no history, so a
// retry cannot duplicate turns.
type ChatOrchestrator struct {
	sessions  *SessionManager
	retriever *Retriever
	assembler *ContextAssembler
	llm       driven.LLMService
	prompts   driven.PromptStore

	maxAnswerTokens int
	temperature     float64
}

// ChatOption configures the orchestrator.
type ChatOption func(*ChatOrchestrator)

// WithMaxAnswerTokens caps generated answer length.
func WithMaxAnswerTokens(n int) ChatOption {
	return func(o *ChatOrchestrator) {
		if n > 0 {
			o.maxAnswerTokens = n
		}
	}
}

// WithTemperature sets generation temperature.
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOrchestrator) {
		if t >= 0 {
			o.temperature = t
		}
	}
}

// NewChatOrchestrator creates the orchestrator. The llm is optional -
// if nil, Chat returns ErrLLMUnavailable.
func NewChatOrchestrator(
	sessions *SessionManager,
	retriever *Retriever,
	assembler *ContextAssembler,
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts ...ChatOption,
) *ChatOrchestrator {
	o := &ChatOrchestrator{
		sessions:        sessions,
		retriever:       retriever,
		assembler:       assembler,
		llm:             llm,
		prompts:         prompts,
		maxAnswerTokens: defaultMaxAnswerTokens,
		temperature:     defaultTemperature,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Chat answers one turn. The returned channel yields token events
// followed by exactly one done or error event, then closes.
func (o *ChatOrchestrator) Chat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatEvent, error) {
	if o.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	session, err := o.sessions.GetOrCreate(ctx, req.SessionID, req.Namespace, req.RecruiterID)
	if err != nil {
		return nil, err
	}

	// One generation in flight per session; concurrent turns are
	// rejected, never interleaved.
	if !o.sessions.TryAcquire(session.ID) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionBusy, session.ID)
	}

	released := false
	release := func() {
		if !released {
			released = true
			o.sessions.Release(session.ID)
		}
	}
	defer func() {
		// Synchronous failure paths below must not leak the lock.
		if !released && err != nil {
			release()
		}
	}()

	results, err := o.retriever.Retrieve(ctx, session.Namespace, req.Message, 0)
	if err != nil {
		return nil, err
	}

	blocks, err := o.assembler.Assemble(ctx, results, 0)
	if err != nil {
		return nil, err
	}

	messages, err := o.buildMessages(session, blocks, req.Message)
	if err != nil {
		return nil, err
	}

	stream, err := o.llm.Stream(ctx, messages, driven.ChatOptions{
		MaxTokens:   o.maxAnswerTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	events := make(chan domain.ChatEvent, chatEventBuffer)
	go o.consume(ctx, session, req.Message, blocks, stream, events, release)
	return events, nil
}

// GetSession returns a session's bounded history.
func (o *ChatOrchestrator) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	return o.sessions.Get(ctx, sessionID)
}

// consume forwards the generation stream, then resolves citations and
// records the exchange. Runs in its own goroutine; owns the session
// lock until done.
func (o *ChatOrchestrator) consume(
	ctx context.Context,
	session *domain.ChatSession,
	question string,
	blocks []domain.ContextBlock,
	stream <-chan driven.StreamChunk,
	events chan<- domain.ChatEvent,
	release func(),
) {
	defer close(events)
	defer release()

	// emit blocks on the consumer but never outlives a cancelled
	// caller, so the session lock cannot leak on disconnect.
	emit := func(ev domain.ChatEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	fail := func(cause error) {
		ev := domain.ChatEvent{
			Type:      domain.ChatEventError,
			SessionID: session.ID,
			Err:       fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, cause),
		}
		// Best-effort: the caller may already be gone.
		select {
		case events <- ev:
		default:
		}
	}

	var answer strings.Builder
	for {
		select {
		case <-ctx.Done():
			// Caller disconnected: stop consuming upstream, record
			// nothing.
			logger.Debug("Chat turn on session %s cancelled mid-stream", session.ID)
			fail(ctx.Err())
			return

		case chunk, ok := <-stream:
			if !ok {
				o.finish(session, question, blocks, answer.String(), events)
				return
			}
			if chunk.Err != nil {
				logger.Warn("Generation failed on session %s: %v", session.ID, chunk.Err)
				fail(chunk.Err)
				return
			}
			answer.WriteString(chunk.Delta)
			if !emit(domain.ChatEvent{
				Type:      domain.ChatEventToken,
				SessionID: session.ID,
				Token:     chunk.Delta,
			}) {
				return
			}
		}
	}
}

// finish post-processes the full answer, emits the done event, and
// records both turns of the exchange.
func (o *ChatOrchestrator) finish(
	session *domain.ChatSession,
	question string,
	blocks []domain.ContextBlock,
	raw string,
	events chan<- domain.ChatEvent,
) {
	message, citations := resolveCitations(raw, blocks)

	// The stream completed, so the exchange is recorded even if the
	// caller disconnects while we persist it.
	recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	now := time.Now()
	err := o.sessions.AppendTurns(recordCtx, session,
		domain.ChatTurn{Role: domain.RoleUser, Content: question, At: now},
		domain.ChatTurn{Role: domain.RoleAssistant, Content: message, Citations: citations, At: now},
	)
	if err != nil {
		logger.Warn("Recording turn on session %s failed: %v", session.ID, err)
		events <- domain.ChatEvent{
			Type:      domain.ChatEventError,
			SessionID: session.ID,
			Err:       fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err),
		}
		return
	}

	events <- domain.ChatEvent{
		Type:      domain.ChatEventDone,
		SessionID: session.ID,
		Message:   message,
		Citations: citations,
	}
}

// buildMessages renders the grounded answer prompt and replays the
// session's bounded history ahead of the new question.
func (o *ChatOrchestrator) buildMessages(session *domain.ChatSession, blocks []domain.ContextBlock, question string) ([]driven.ChatMessage, error) {
	template, err := o.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}

	var contextText strings.Builder
	if len(blocks) == 0 {
		contextText.WriteString("(no matching resume excerpts)")
	}
	for i, block := range blocks {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		fmt.Fprintf(&contextText, "[%d] %s", block.Ref, block.Text)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(template, contextText.String())},
	}
	for _, turn := range session.Turns {
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, driven.ChatMessage{Role: "user", Content: question})
	return messages, nil
}

// resolveCitations maps bracketed markers in the generated text back to
// the context blocks they reference. Markers that resolve become
// citations, ordered by first appearance; markers that reference no
// block are removed from the text rather than surfaced as broken links.
func resolveCitations(text string, blocks []domain.ContextBlock) (string, []domain.Citation) {
	byRef := make(map[int]domain.ContextBlock, len(blocks))
	for _, block := range blocks {
		byRef[block.Ref] = block
	}

	var citations []domain.Citation
	seen := make(map[int]bool)

	resolved := markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		ref, err := strconv.Atoi(marker[1 : len(marker)-1])
		if err != nil {
			return ""
		}
		block, ok := byRef[ref]
		if !ok {
			return ""
		}
		if !seen[ref] {
			seen[ref] = true
			citations = append(citations, domain.Citation{
				Marker:     ref,
				ChunkID:    block.ChunkID,
				DocumentID: block.DocumentID,
				Score:      block.Score,
			})
		}
		return marker
	})

	return strings.TrimSpace(resolved), citations
}
