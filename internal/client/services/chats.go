package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Grupo-Cloud/frontend/internal/client/api"
	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const previewLen = 60

// ChatService covers chat sessions, their messages and the assistant.
//
// Ask persists the user's message, sends it to the generation endpoint and
// persists the reply. If generation fails the user's message stays stored.
type ChatService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*models.Chat, error)
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
	Messages(ctx context.Context, chatID uuid.UUID) ([]models.StoredMessage, error)
	Send(ctx context.Context, chatID uuid.UUID, m models.Message) (*models.StoredMessage, error)
	Ask(ctx context.Context, chatID uuid.UUID, question string) (*models.StoredMessage, error)
	History(ctx context.Context, chats []models.Chat) ([]models.ChatSummary, error)
}

type chatService struct {
	client      Doer
	llm         LLMService
	concurrency int
}

func NewChatService(client Doer, llm LLMService, concurrency int) ChatService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &chatService{client: client, llm: llm, concurrency: concurrency}
}

func (s *chatService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	req, err := api.NewJSONRequest(http.MethodPost, "/users/"+userID.String()+"/chats", models.ChatCreate{Name: name, UserID: userID})
	if err != nil {
		return nil, err
	}

	var c models.Chat
	if err := doJSON(ctx, s.client, req, &c); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &c, nil
}

func (s *chatService) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	req := api.NewRequest(http.MethodDelete, "/users/"+userID.String()+"/chats/"+chatID.String())
	if err := doJSON(ctx, s.client, req, nil); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (s *chatService) Messages(ctx context.Context, chatID uuid.UUID) ([]models.StoredMessage, error) {
	var msgs []models.StoredMessage
	if err := doJSON(ctx, s.client, api.NewRequest(http.MethodGet, "/chats/"+chatID.String()+"/messages"), &msgs); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return msgs, nil
}

func (s *chatService) Send(ctx context.Context, chatID uuid.UUID, m models.Message) (*models.StoredMessage, error) {
	if strings.TrimSpace(m.Content) == "" {
		return nil, ErrEmptyMessage
	}
	req, err := api.NewJSONRequest(http.MethodPost, "/chats/"+chatID.String()+"/messages", m)
	if err != nil {
		return nil, err
	}

	var out models.StoredMessage
	if err := doJSON(ctx, s.client, req, &out); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &out, nil
}

func (s *chatService) Ask(ctx context.Context, chatID uuid.UUID, question string) (*models.StoredMessage, error) {
	question = strings.TrimSpace(question)
	if _, err := s.Send(ctx, chatID, models.Message{Content: question, FromUser: true}); err != nil {
		return nil, err
	}

	answer, err := s.llm.Generate(ctx, question)
	if err != nil {
		return nil, err
	}

	return s.Send(ctx, chatID, models.Message{Content: answer, FromUser: false})
}

// History loads message counts and the last message of every chat, at most
// s.concurrency at a time. The result keeps the order of chats.
func (s *chatService) History(ctx context.Context, chats []models.Chat) ([]models.ChatSummary, error) {
	out := make([]models.ChatSummary, len(chats))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, c := range chats {
		g.Go(func() error {
			msgs, err := s.Messages(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("chat %q: %w", c.Name, err)
			}
			sum := models.ChatSummary{Chat: c, MessageCount: len(msgs)}
			if len(msgs) > 0 {
				sum.LastMessage = Preview(msgs[len(msgs)-1].Content, previewLen)
			}
			out[i] = sum
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Preview flattens whitespace and cuts s to n runes, adding an ellipsis.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

type LLMService interface {
	Generate(ctx context.Context, query string) (string, error)
}

type llmService struct {
	client Doer
}

func NewLLMService(client Doer) LLMService {
	return &llmService{client: client}
}

func (s *llmService) Generate(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyMessage
	}
	req := api.NewRequest(http.MethodPost, "/llm/generate")
	req.Query = url.Values{"query": {query}}

	var out models.GenerateResponse
	if err := doJSON(ctx, s.client, req, &out); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out.Response.Content, nil
}
