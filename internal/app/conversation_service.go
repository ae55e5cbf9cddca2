package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"botgpt-backend/internal/ai"
	"botgpt-backend/internal/model"
	"botgpt-backend/internal/rag"
	"botgpt-backend/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrLLMUnavailable       = errors.New("LLM unavailable")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type RetrievalSettings struct {
	ChunkBytes int
	TopK       int
	Window     HistoryWindow
}

type ConversationService struct {
	store     *repository.Store
	llm       ai.ChatCompleter
	ranker    rag.Ranker
	retrieval RetrievalSettings
	hooks     *conversationHooks
}

func NewConversationService(
	store *repository.Store,
	llm ai.ChatCompleter,
	ranker rag.Ranker,
	retrieval RetrievalSettings,
	opts ...Option,
) *ConversationService {
	if retrieval.ChunkBytes <= 0 {
		retrieval.ChunkBytes = rag.DefaultChunkBytes
	}
	if retrieval.TopK <= 0 {
		retrieval.TopK = rag.DefaultTopK
	}
	if retrieval.Window == nil {
		retrieval.Window = LastN(DefaultHistoryWindow)
	}
	return &ConversationService{
		store:     store,
		llm:       llm,
		ranker:    ranker,
		retrieval: retrieval,
		hooks:     newHooks(opts),
	}
}

type StartInput struct {
	UserID          uint
	FirstMessage    string
	Mode            string
	DocumentContent string
}

type StartResult struct {
	ConversationID uint
	Response       string
}

type ConversationDetail struct {
	Conversation *model.Conversation
	Messages     []model.Message
}

func (s *ConversationService) Start(ctx context.Context, input StartInput) (*StartResult, error) {
	first := input.FirstMessage
	mode := input.Mode
	if mode == "" {
		mode = model.ModeOpen
	}
	if input.UserID == 0 || strings.TrimSpace(first) == "" || (mode != model.ModeOpen && mode != model.ModeGrounded) {
		return nil, ErrInvalidInput
	}

	user, err := s.store.Users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var chunks []string
	if mode == model.ModeGrounded {
		chunks = rag.Chunk(input.DocumentContent, s.retrieval.ChunkBytes)
	}

	conv := &model.Conversation{
		UserID: input.UserID,
		Mode:   mode,
		Title:  deriveTitle(first),
	}
	userMsg := &model.Message{
		Role:       model.RoleUser,
		Content:    first,
		TokenCount: EstimateTokens(first),
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Conversations.Create(ctx, conv); err != nil {
			return err
		}
		if len(chunks) > 0 {
			doc := &model.Document{
				ConversationID: conv.ID,
				OriginalText:   input.DocumentContent,
			}
			if err := doc.SetChunks(chunks); err != nil {
				return err
			}
			if err := tx.Documents.Create(ctx, doc); err != nil {
				return err
			}
		}
		userMsg.ConversationID = conv.ID
		return tx.Messages.Create(ctx, userMsg)
	})
	if err != nil {
		return nil, err
	}

	retrieved, used := s.retrieve(first, chunks)
	reply, err := s.reply(ctx, conv, userMsg, []model.Message{*userMsg}, retrieved, used)
	if err != nil {
		return nil, err
	}
	return &StartResult{ConversationID: conv.ID, Response: reply}, nil
}

func (s *ConversationService) SendMessage(ctx context.Context, conversationID uint, message string) (string, error) {
	if conversationID == 0 || strings.TrimSpace(message) == "" {
		return "", ErrInvalidInput
	}

	conv, err := s.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", ErrConversationNotFound
	}

	userMsg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        message,
		TokenCount:     EstimateTokens(message),
	}
	if err := s.store.Messages.Create(ctx, userMsg); err != nil {
		return "", err
	}
	s.hooks.invalidate(ctx, conv.ID)

	history, err := s.history(ctx, conv.ID)
	if err != nil {
		return "", err
	}
	window := s.retrieval.Window.Select(history)

	var chunks []string
	if conv.Grounded() {
		doc, err := s.store.Documents.GetByConversationID(ctx, conv.ID)
		if err != nil {
			return "", err
		}
		if doc != nil {
			if chunks, err = doc.ChunkList(); err != nil {
				return "", err
			}
		}
	}
	retrieved, used := s.retrieve(message, chunks)

	return s.reply(ctx, conv, userMsg, window, retrieved, used)
}

func (s *ConversationService) List(ctx context.Context, userID uint, skip, limit int) ([]model.Conversation, error) {
	if userID == 0 || skip < 0 || limit < 0 {
		return nil, ErrInvalidInput
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.Conversations.ListByUserID(ctx, userID, skip, limit)
}

// Get returns the conversation with its full history. An existing
// conversation without messages yields an empty list, not ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, conversationID uint) (*ConversationDetail, error) {
	if conversationID == 0 {
		return nil, ErrInvalidInput
	}
	conv, err := s.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	history, err := s.history(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: conv, Messages: history}, nil
}

func (s *ConversationService) Delete(ctx context.Context, conversationID uint) error {
	if conversationID == 0 {
		return ErrInvalidInput
	}
	conv, err := s.store.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := s.store.DeleteConversation(ctx, conv.ID); err != nil {
		return err
	}
	s.hooks.conversationDeleted(ctx, conv.ID)
	return nil
}

func (s *ConversationService) history(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if cached, ok := s.hooks.cachedHistory(ctx, conversationID); ok {
		return cached, nil
	}
	msgs, err := s.store.Messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	s.hooks.storeHistory(ctx, conversationID, msgs)
	return msgs, nil
}

func (s *ConversationService) retrieve(query string, chunks []string) (string, int) {
	if len(chunks) == 0 {
		return "", 0
	}
	ranked := s.ranker.Rank(query, chunks, s.retrieval.TopK)
	return strings.Join(ranked, "\n\n"), len(ranked)
}

// reply calls the model and stores its answer. The user message is already
// committed, so an LLM failure leaves it without a reply.
func (s *ConversationService) reply(
	ctx context.Context,
	conv *model.Conversation,
	userMsg *model.Message,
	window []model.Message,
	retrieved string,
	retrievedChunks int,
) (string, error) {
	completion, err := s.llm.Complete(ctx, BuildPrompt(window, retrieved))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrLLMUnavailable, err.Error())
	}

	tokens := completion.TotalTokens
	if tokens <= 0 {
		tokens = EstimateTokens(completion.Content)
	}
	assistant := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        completion.Content,
		TokenCount:     tokens,
	}
	if err := s.store.Messages.Create(ctx, assistant); err != nil {
		return "", err
	}
	s.hooks.invalidate(ctx, conv.ID)
	s.hooks.publish(ctx, model.ConversationEvent{
		Type:               model.EventTurnCompleted,
		ConversationID:     conv.ID,
		Mode:               conv.Mode,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistant.ID,
		TokenCount:         tokens,
		RetrievedChunks:    retrievedChunks,
	})
	return completion.Content, nil
}
