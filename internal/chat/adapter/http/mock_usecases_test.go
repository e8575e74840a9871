package http_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/lanyu617/next-chat/internal/chat/adapter/llm"
	"github.com/lanyu617/next-chat/internal/chat/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockSessionUsecase is a shared mock type for the SessionUsecaseInterface
type mockSessionUsecase struct {
	mock.Mock
}

func (m *mockSessionUsecase) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *mockSessionUsecase) CreateSession(ctx context.Context, userID, title string) (*model.Session, error) {
	args := m.Called(ctx, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionUsecase) RenameSession(ctx context.Context, userID, sessionID, title string) (*model.Session, error) {
	args := m.Called(ctx, userID, sessionID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionUsecase) DeleteSession(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *mockSessionUsecase) ResolveSession(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *mockSessionUsecase) ListMessages(ctx context.Context, userID, sessionID string) ([]*model.Message, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

// memoryMessageRepo is an in-memory transcript store for streaming tests.
type memoryMessageRepo struct {
	mu       sync.Mutex
	messages []*model.Message
}

func (r *memoryMessageRepo) AppendMessage(ctx context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *memoryMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryMessageRepo) FindUnansweredSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	return nil, nil
}

func (r *memoryMessageRepo) all() []*model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// scriptedCompleter streams a fixed set of fragments, or fails to open.
type scriptedCompleter struct {
	fragments []string
	openErr   error
	streamErr error
}

func (c *scriptedCompleter) StreamCompletion(ctx context.Context, prompt string) (llm.CompletionStream, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return &scriptedStream{fragments: c.fragments, finalErr: c.streamErr}, nil
}

type scriptedStream struct {
	fragments []string
	finalErr  error
	pos       int
}

func (s *scriptedStream) Recv() (string, error) {
	if s.pos < len(s.fragments) {
		fragment := s.fragments[s.pos]
		s.pos++
		return fragment, nil
	}
	if s.finalErr != nil {
		return "", s.finalErr
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error { return nil }
