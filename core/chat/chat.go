// Package chat runs conversations with the admissions assistant, a remote conversational service.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrUnavailable wraps every failure of the remote assistant.
	ErrUnavailable = errors.New("assistant unavailable")

	errEmptyMessage = errors.New("message cannot be empty")
)

type (
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	Reply struct {
		SessionID string    `json:"session_id"`
		Message   string    `json:"message"`
		Sources   []string  `json:"sources,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Request struct {
		SessionID string    `json:"session_id"`
		Message   string    `json:"message"`
		History   []Message `json:"history"`
	}

	// Client talks to the remote conversational service.
	Client interface {
		Send(ctx context.Context, req Request) (Reply, error)
	}

	Service interface {
		// Ask sends message within sessionID's conversation and returns the assistant's reply.
		Ask(ctx context.Context, sessionID, message string) (Reply, error)
		History(sessionID string) []Message
		Reset(sessionID string)
	}

	service struct {
		client  Client
		history *cache.Cache
		maxLen  int
		mu      sync.Mutex // serializes history read-modify-write per service
	}
)

var _ Service = (*service)(nil)

func NewService(client Client, conf core.ChatConfig) Service {
	maxLen := conf.HistorySize
	if maxLen < 2 {
		maxLen = 2
	}
	return &service{
		client:  client,
		history: cache.New(conf.HistoryTTL, 2*conf.HistoryTTL),
		maxLen:  maxLen,
	}
}

func (svc *service) Ask(ctx context.Context, sessionID, message string) (Reply, error) {
	sessionID = core.CleanString(sessionID)
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, core.NewValidationError(errEmptyMessage, core.FieldError{Field: "message", Error: errEmptyMessage.Error()})
	}

	reply, err := svc.client.Send(ctx, Request{
		SessionID: sessionID,
		Message:   message,
		History:   svc.History(sessionID),
	})
	if err != nil {
		return Reply{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}

	svc.append(reply.SessionID, Message{Role: RoleUser, Content: message}, Message{Role: RoleAssistant, Content: reply.Message})
	return reply, nil
}

// History returns a copy of the messages exchanged so far in sessionID, oldest first.
func (svc *service) History(sessionID string) []Message {
	if sessionID == "" {
		return []Message{}
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if msgs, ok := svc.history.Get(sessionID); ok {
		return append([]Message{}, msgs.([]Message)...)
	}
	return []Message{}
}

func (svc *service) Reset(sessionID string) {
	svc.history.Delete(sessionID)
}

func (svc *service) append(sessionID string, msgs ...Message) {
	if sessionID == "" {
		return
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var history []Message
	if prev, ok := svc.history.Get(sessionID); ok {
		history = append(history, prev.([]Message)...)
	}
	history = append(history, msgs...)
	if len(history) > svc.maxLen {
		history = history[len(history)-svc.maxLen:]
	}
	svc.history.SetDefault(sessionID, history)
}
