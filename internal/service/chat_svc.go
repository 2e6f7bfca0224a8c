package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/llm"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/vectorstore"
)

const (
	ClassificationGeneral   = "general"
	ClassificationRetrieval = "retrieval"

	notFoundAnswer   = "Information not available in documents"
	truncationMarker = "\n\n... (truncated)"
)

const classificationPrompt = `Classify the following query as either:
- 'general': If it can be answered using general knowledge without specific document references
  (e.g., greeting, definitions, common facts).
- 'retrieval': If it requires retrieving information from specific documents like leases or
  letters of intent (e.g., details about rent, terms).
Query: %s
Respond only with 'general' or 'retrieval'.`

const generalPrompt = `You are Portfolio Pulse, a friendly and knowledgeable real estate advisor helping clients understand apartments, leases, and real estate concepts.
Answer only from your built-in real estate knowledge. Greetings get a warm, brief reply. If the question is not about real estate, politely say you specialize in real estate only.
User Query: %s`

const groundedPrompt = `You are Portfolio Pulse, a professional real estate advisor assisting clients with apartment or building inquiries.
Use only the details explicitly provided in the document excerpts below to answer the client's question.
Be factual, concise, and friendly. Avoid guessing, adding assumptions, or referencing external data.
If multiple excerpts are relevant, synthesize them into a coherent answer.
Document Excerpts:
%s

Client's Question:
%s`

// ChatOptions are the retrieval-path tunables.
type ChatOptions struct {
	TopK            int
	ContextBudget   int
	ContextChunkCap int
	MinContextChunk int
}

func (o *ChatOptions) withDefaults() ChatOptions {
	out := *o
	if out.TopK <= 0 {
		out.TopK = 50
	}
	if out.ContextBudget <= 0 {
		out.ContextBudget = 28000
	}
	if out.ContextChunkCap <= 0 {
		out.ContextChunkCap = 8
	}
	if out.MinContextChunk <= 0 {
		out.MinContextChunk = 50
	}
	return out
}

// ChatStore persists sessions and turns. Implemented by
// repository.ChatRepository; tests substitute an in-memory fake.
type ChatStore interface {
	GetOrCreateSession(ctx context.Context, sessionID, userID, companyID, category string) (*model.ChatSession, error)
	CreateTurn(ctx context.Context, turn *model.ChatTurn) error
	ListTurns(ctx context.Context, sessionID, companyID string, limit int) ([]model.ChatTurn, error)
}

// Classification makes the degraded branch explicit: Fallback is true when
// the classifier call failed or answered outside the label set and the safe
// default was used instead.
type Classification struct {
	Label    string
	Fallback bool
}

// AskInput is one incoming question with its scope.
type AskInput struct {
	Question   string
	SessionID  string
	UserID     string
	CompanyID  string
	Category   string
	BuildingID string
	FileID     string
	DocType    string
}

// AskResult is the answered question as returned to the caller.
type AskResult struct {
	SessionID      string  `json:"session_id"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	ResponseTime   float64 `json:"response_time"`
	SourcesUsed    int     `json:"sources_used"`
}

// ChatService answers questions: classify, then either answer directly or
// retrieve scoped chunks and synthesize a grounded answer. Every answered
// question persists exactly one chat turn.
//
// When classification fails the question falls back to document retrieval:
// grounding against tenant documents degrades safer than free generation.
type ChatService struct {
	chat     llm.Chatter
	embedder Embedder
	store    vectorstore.Store
	chatRepo ChatStore
	opts     ChatOptions
	logger   *slog.Logger
}

func NewChatService(chat llm.Chatter, embedder Embedder, store vectorstore.Store, chatRepo ChatStore, opts ChatOptions) *ChatService {
	return &ChatService{
		chat:     chat,
		embedder: embedder,
		store:    store,
		chatRepo: chatRepo,
		opts:     opts.withDefaults(),
		logger:   slog.Default().With("service", "chat"),
	}
}

// Ask runs the per-question state machine. A cancelled context aborts before
// persistence; nothing partial is committed.
func (s *ChatService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if in.CompanyID == "" {
		return nil, fmt.Errorf("company_id is required")
	}

	start := time.Now()
	cls := s.classify(ctx, in.Question)

	var (
		answer     string
		confidence float64
		sources    int
		err        error
	)
	if cls.Label == ClassificationGeneral {
		answer, err = s.answerGeneral(ctx, in.Question)
		confidence = 1.0
	} else {
		answer, confidence, sources, err = s.answerFromDocuments(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	result := &AskResult{
		SessionID:      in.SessionID,
		Question:       in.Question,
		Answer:         answer,
		Classification: cls.Label,
		Confidence:     confidence,
		ResponseTime:   time.Since(start).Seconds(),
		SourcesUsed:    sources,
	}

	if err := s.persistTurn(ctx, in, result); err != nil {
		return nil, fmt.Errorf("failed to persist chat turn: %w", err)
	}
	return result, nil
}

// classify maps the question to a routing label with one bounded call.
func (s *ChatService) classify(ctx context.Context, question string) Classification {
	resp, err := s.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(fmt.Sprintf(classificationPrompt, question))},
		einomodel.WithTemperature(0),
		einomodel.WithMaxTokens(10),
	)
	if err != nil {
		s.logger.Warn("query classification failed, defaulting to retrieval", "error", err)
		return Classification{Label: ClassificationRetrieval, Fallback: true}
	}

	label := strings.ToLower(strings.TrimSpace(resp.Content))
	label = strings.Trim(label, `'".`)
	if label != ClassificationGeneral && label != ClassificationRetrieval {
		s.logger.Warn("query classification outside label set, defaulting to retrieval", "label", label)
		return Classification{Label: ClassificationRetrieval, Fallback: true}
	}
	return Classification{Label: label}
}

func (s *ChatService) answerGeneral(ctx context.Context, question string) (string, error) {
	resp, err := s.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(fmt.Sprintf(generalPrompt, question))},
	)
	if err != nil {
		return "", fmt.Errorf("could not process request: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// answerFromDocuments embeds the question, queries the scoped index, bounds
// the context, and synthesizes a grounded answer. Zero usable matches yields
// the fixed not-found answer with confidence 0 — never a fabricated one.
func (s *ChatService) answerFromDocuments(ctx context.Context, in AskInput) (string, float64, int, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{in.Question})
	if err != nil || len(embeddings) == 0 {
		return "", 0, 0, fmt.Errorf("could not process request: question embedding failed: %w", err)
	}

	filter := vectorstore.Filter{
		CompanyID:  in.CompanyID,
		Category:   in.Category,
		BuildingID: in.BuildingID,
		FileID:     in.FileID,
		DocType:    in.DocType,
	}
	matches, err := s.store.Query(ctx, embeddings[0].Slice(), s.opts.TopK, filter)
	if err != nil {
		return "", 0, 0, fmt.Errorf("could not process request: retrieval failed: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	var contextParts []string
	confidence := 0.0
	for _, m := range matches {
		text := strings.TrimSpace(m.Vector.Text)
		if len(text) <= s.opts.MinContextChunk {
			continue
		}
		contextParts = append(contextParts, text)
		if m.Similarity > confidence {
			confidence = m.Similarity
		}
		if len(contextParts) >= s.opts.ContextChunkCap {
			break
		}
	}

	if len(contextParts) == 0 {
		return notFoundAnswer, 0, 0, nil
	}

	contextText := strings.Join(contextParts, "\n\n")
	if len(contextText) > s.opts.ContextBudget {
		contextText = clip(contextText, s.opts.ContextBudget) + truncationMarker
	}

	resp, err := s.chat.Generate(ctx,
		[]*schema.Message{schema.UserMessage(fmt.Sprintf(groundedPrompt, contextText, in.Question))},
	)
	if err != nil {
		return "", 0, 0, fmt.Errorf("could not process request: answer synthesis failed: %w", err)
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return strings.TrimSpace(resp.Content), confidence, len(contextParts), nil
}

func (s *ChatService) persistTurn(ctx context.Context, in AskInput, result *AskResult) error {
	if s.chatRepo == nil {
		return nil
	}
	session, err := s.chatRepo.GetOrCreateSession(ctx, in.SessionID, in.UserID, in.CompanyID, in.Category)
	if err != nil {
		return err
	}
	return s.chatRepo.CreateTurn(ctx, &model.ChatTurn{
		SessionID:      session.ID,
		CompanyID:      in.CompanyID,
		Question:       result.Question,
		Answer:         result.Answer,
		Classification: result.Classification,
		Confidence:     result.Confidence,
		ResponseTime:   result.ResponseTime,
		SourcesUsed:    result.SourcesUsed,
	})
}

// History returns the persisted turns of a session visible to the company,
// oldest first.
func (s *ChatService) History(ctx context.Context, sessionID, companyID string, limit int) ([]model.ChatTurn, error) {
	return s.chatRepo.ListTurns(ctx, sessionID, companyID, limit)
}
