package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/usecase"
	"github.com/lanyu617/next-chat/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ChatUsecaseTestSuite struct {
	suite.Suite
	sessionRepo *mockSessionRepo
	messages    *mockMessageRepo
	completer   *fakeCompleter
	chat        *usecase.ChatUsecase

	appended []*model.Message
}

func (suite *ChatUsecaseTestSuite) SetupTest() {
	suite.sessionRepo = new(mockSessionRepo)
	suite.messages = new(mockMessageRepo)
	suite.completer = &fakeCompleter{stream: &fakeStream{}}
	suite.appended = nil

	log := logger.NewLogger()
	sessions := usecase.NewSessionUsecase(suite.sessionRepo, suite.messages, nil, "New Session 1", log)
	suite.chat = usecase.NewChatUsecase(sessions, suite.messages, suite.completer, time.Minute, log)
}

func (suite *ChatUsecaseTestSuite) ownSession(sessionID, userID string) {
	suite.sessionRepo.On("GetSessionForUser", mock.Anything, sessionID, userID).
		Return(&model.Session{ID: sessionID, UserID: userID}, nil)
}

func (suite *ChatUsecaseTestSuite) recordAppends() {
	suite.messages.On("AppendMessage", mock.Anything, mock.AnythingOfType("*model.Message")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*model.Message)
			clone := *m
			suite.appended = append(suite.appended, &clone)
		}).Return(nil)
}

func (suite *ChatUsecaseTestSuite) TestSend_EmptyContent() {
	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "   ")

	assert.ErrorIs(suite.T(), err, usecase.ErrContentRequired)
	assert.Nil(suite.T(), exchange)
	suite.messages.AssertNotCalled(suite.T(), "AppendMessage")
}

func (suite *ChatUsecaseTestSuite) TestSend_MissingSessionID() {
	exchange, err := suite.chat.Send(context.Background(), "user-123", "", "hello")

	assert.ErrorIs(suite.T(), err, usecase.ErrSessionIDRequired)
	assert.Nil(suite.T(), exchange)
}

func (suite *ChatUsecaseTestSuite) TestSend_UnownedSession() {
	suite.sessionRepo.On("GetSessionForUser", mock.Anything, "s1", "intruder").
		Return(nil, model.ErrSessionNotFound)

	exchange, err := suite.chat.Send(context.Background(), "intruder", "s1", "hello")

	assert.ErrorIs(suite.T(), err, model.ErrSessionNotFound)
	assert.Nil(suite.T(), exchange)
	suite.messages.AssertNotCalled(suite.T(), "AppendMessage")
}

func (suite *ChatUsecaseTestSuite) TestSend_PersistsUserMessage() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "hello there")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), exchange)
	require.Len(suite.T(), suite.appended, 1)
	assert.Equal(suite.T(), model.SenderUser, suite.appended[0].Sender)
	assert.Equal(suite.T(), "hello there", suite.appended[0].Content)
	assert.Equal(suite.T(), "s1", suite.appended[0].SessionID)

	// Release the session lock.
	exchange.Relay(&fakeFlusher{}, func() {})
}

func (suite *ChatUsecaseTestSuite) TestRelay_StreamsAndPersistsReply() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()
	suite.completer.stream = &fakeStream{fragments: []string{"Hel", "lo", " world"}}

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "hi")
	require.NoError(suite.T(), err)

	out := &fakeFlusher{}
	aborted := false
	exchange.Relay(out, func() { aborted = true })

	assert.Equal(suite.T(), "Hello world", string(out.written))
	assert.False(suite.T(), aborted)
	assert.True(suite.T(), suite.completer.stream.closed)

	require.Len(suite.T(), suite.appended, 2)
	bot := suite.appended[1]
	assert.Equal(suite.T(), model.SenderBot, bot.Sender)
	// The persisted reply equals the concatenation of streamed fragments.
	assert.Equal(suite.T(), "Hello world", bot.Content)
}

func (suite *ChatUsecaseTestSuite) TestRelay_UpstreamOpenFailure() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()
	suite.completer.openErr = errors.New("connection refused")

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "hi")
	require.NoError(suite.T(), err)

	out := &fakeFlusher{}
	aborted := false
	exchange.Relay(out, func() { aborted = true })

	assert.Empty(suite.T(), out.written)
	assert.True(suite.T(), aborted)

	// The user turn survives, answered by the error sentinel.
	require.Len(suite.T(), suite.appended, 2)
	assert.Equal(suite.T(), model.SenderUser, suite.appended[0].Sender)
	assert.Equal(suite.T(), model.SenderBot, suite.appended[1].Sender)
	assert.Equal(suite.T(), "Error: Could not get response from AI.", suite.appended[1].Content)
}

func (suite *ChatUsecaseTestSuite) TestRelay_MidStreamFailure() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()
	suite.completer.stream = &fakeStream{
		fragments: []string{"par", "tial"},
		finalErr:  errors.New("stream reset"),
	}

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "hi")
	require.NoError(suite.T(), err)

	out := &fakeFlusher{}
	aborted := false
	exchange.Relay(out, func() { aborted = true })

	// The client saw a partial reply and an aborted connection; the
	// transcript records the failure sentinel, not the partial text.
	assert.Equal(suite.T(), "partial", string(out.written))
	assert.True(suite.T(), aborted)
	require.Len(suite.T(), suite.appended, 2)
	assert.Equal(suite.T(), "Error: Could not get response from AI.", suite.appended[1].Content)
}

func (suite *ChatUsecaseTestSuite) TestRelay_ClientDisconnect() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()
	suite.completer.stream = &fakeStream{fragments: []string{"par", "tial", " reply"}}

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "hi")
	require.NoError(suite.T(), err)

	out := &fakeFlusher{failAfter: 2, writeErr: errors.New("broken pipe")}
	aborted := false
	exchange.Relay(out, func() { aborted = true })

	// No abort: the client is already gone. Whatever accumulated is kept.
	assert.False(suite.T(), aborted)
	require.Len(suite.T(), suite.appended, 2)
	assert.Equal(suite.T(), model.SenderBot, suite.appended[1].Sender)
	assert.Equal(suite.T(), "partial", suite.appended[1].Content)
}

func (suite *ChatUsecaseTestSuite) TestRelay_ReleasesSessionLock() {
	suite.ownSession("s1", "user-123")
	suite.recordAppends()
	suite.completer.stream = &fakeStream{fragments: []string{"one"}}

	exchange, err := suite.chat.Send(context.Background(), "user-123", "s1", "first")
	require.NoError(suite.T(), err)
	exchange.Relay(&fakeFlusher{}, func() {})

	// A second turn on the same session must not block on a leaked lock.
	suite.completer.stream = &fakeStream{fragments: []string{"two"}}
	done := make(chan struct{})
	go func() {
		second, err := suite.chat.Send(context.Background(), "user-123", "s1", "second")
		assert.NoError(suite.T(), err)
		if second != nil {
			second.Relay(&fakeFlusher{}, func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		suite.T().Fatal("second send blocked; session lock was not released")
	}
}

func TestChatUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(ChatUsecaseTestSuite))
}
