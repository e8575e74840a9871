package usecase_test

import (
	"context"
	"io"
	"time"

	"github.com/lanyu617/next-chat/internal/chat/adapter/llm"
	"github.com/lanyu617/next-chat/internal/chat/domain/model"

	"github.com/stretchr/testify/mock"
)

// --- Repository mocks ---

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) GetSessionForUser(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) ListSessionsByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *mockSessionRepo) RenameSession(ctx context.Context, sessionID, userID, title string) (*model.Session, error) {
	args := m.Called(ctx, sessionID, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) DeleteSession(ctx context.Context, sessionID, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) AppendMessage(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Message, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindUnansweredSessions(ctx context.Context, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Completer fakes ---

// fakeStream yields the scripted fragments then finishes with finalErr
// (io.EOF for a clean end).
type fakeStream struct {
	fragments []string
	finalErr  error
	pos       int
	closed    bool
}

func (s *fakeStream) Recv() (string, error) {
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

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeCompleter struct {
	stream  *fakeStream
	openErr error
	prompt  string
}

func (c *fakeCompleter) StreamCompletion(ctx context.Context, prompt string) (llm.CompletionStream, error) {
	c.prompt = prompt
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.stream, nil
}

// --- Stream writer fakes ---

// fakeFlusher records everything written; failAfter > 0 makes the write with
// that ordinal fail, simulating a client disconnect.
type fakeFlusher struct {
	written   []byte
	writes    int
	failAfter int
	writeErr  error
}

func (f *fakeFlusher) Write(p []byte) (int, error) {
	f.writes++
	if f.failAfter > 0 && f.writes >= f.failAfter {
		return 0, f.writeErr
	}
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeFlusher) Flush() error {
	return nil
}
