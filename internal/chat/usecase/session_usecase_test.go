package usecase_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/usecase"
	"github.com/lanyu617/next-chat/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SessionUsecaseTestSuite struct {
	suite.Suite
	sessions *mockSessionRepo
	messages *mockMessageRepo
	usecase  *usecase.SessionUsecase
}

func (suite *SessionUsecaseTestSuite) SetupTest() {
	suite.sessions = new(mockSessionRepo)
	suite.messages = new(mockMessageRepo)
	// Nil cache: ownership always resolves against the repository.
	suite.usecase = usecase.NewSessionUsecase(
		suite.sessions, suite.messages, nil, "New Session 1", logger.NewLogger(),
	)
}

func (suite *SessionUsecaseTestSuite) TestListSessions_ReturnsExisting() {
	ctx := context.Background()
	existing := []*model.Session{
		{ID: "s2", UserID: "user-123", Title: "Later"},
		{ID: "s1", UserID: "user-123", Title: "Earlier"},
	}
	suite.sessions.On("ListSessionsByUser", ctx, "user-123").Return(existing, nil)

	sessions, err := suite.usecase.ListSessions(ctx, "user-123")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), existing, sessions)
	suite.sessions.AssertNotCalled(suite.T(), "CreateSession")
}

func (suite *SessionUsecaseTestSuite) TestListSessions_AutoCreatesFirstSession() {
	ctx := context.Background()
	suite.sessions.On("ListSessionsByUser", ctx, "user-123").Return([]*model.Session{}, nil)
	suite.sessions.On("CreateSession", ctx, mock.AnythingOfType("*model.Session")).Return(nil)

	sessions, err := suite.usecase.ListSessions(ctx, "user-123")

	require.NoError(suite.T(), err)
	require.Len(suite.T(), sessions, 1)
	assert.Equal(suite.T(), "New Session 1", sessions[0].Title)
	assert.Equal(suite.T(), "user-123", sessions[0].UserID)
	assert.NotEmpty(suite.T(), sessions[0].ID)
}

func (suite *SessionUsecaseTestSuite) TestCreateSession_Validation() {
	testCases := []struct {
		name  string
		title string
	}{
		{name: "empty title", title: ""},
		{name: "whitespace title", title: "   "},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			session, err := suite.usecase.CreateSession(context.Background(), "user-123", tc.title)

			assert.ErrorIs(suite.T(), err, usecase.ErrTitleRequired)
			assert.Nil(suite.T(), session)
		})
	}
}

func (suite *SessionUsecaseTestSuite) TestCreateSession_TruncatesLongTitle() {
	ctx := context.Background()
	suite.sessions.On("CreateSession", ctx, mock.AnythingOfType("*model.Session")).Return(nil)

	session, err := suite.usecase.CreateSession(ctx, "user-123", strings.Repeat("x", 500))

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), session.Title, 200)
}

func (suite *SessionUsecaseTestSuite) TestCreateSession_TruncatesOnRuneBoundary() {
	ctx := context.Background()
	suite.sessions.On("CreateSession", ctx, mock.AnythingOfType("*model.Session")).Return(nil)

	session, err := suite.usecase.CreateSession(ctx, "user-123", strings.Repeat("世", 250))

	require.NoError(suite.T(), err)
	assert.True(suite.T(), utf8.ValidString(session.Title))
	assert.Equal(suite.T(), 200, utf8.RuneCountInString(session.Title))
}

func (suite *SessionUsecaseTestSuite) TestRenameSession_Unowned() {
	ctx := context.Background()
	suite.sessions.On("RenameSession", ctx, "s1", "intruder", "Stolen").
		Return(nil, model.ErrSessionNotFound)

	session, err := suite.usecase.RenameSession(ctx, "intruder", "s1", "Stolen")

	assert.ErrorIs(suite.T(), err, model.ErrSessionNotFound)
	assert.Nil(suite.T(), session)
}

func (suite *SessionUsecaseTestSuite) TestRenameSession_Success() {
	ctx := context.Background()
	renamed := &model.Session{ID: "s1", UserID: "user-123", Title: "Renamed"}
	suite.sessions.On("RenameSession", ctx, "s1", "user-123", "Renamed").Return(renamed, nil)

	session, err := suite.usecase.RenameSession(ctx, "user-123", "s1", "Renamed")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), renamed, session)
}

func (suite *SessionUsecaseTestSuite) TestRenameSession_MissingID() {
	session, err := suite.usecase.RenameSession(context.Background(), "user-123", "", "Title")

	assert.ErrorIs(suite.T(), err, usecase.ErrSessionIDRequired)
	assert.Nil(suite.T(), session)
}

func (suite *SessionUsecaseTestSuite) TestDeleteSession_Success() {
	ctx := context.Background()
	suite.sessions.On("DeleteSession", ctx, "s1", "user-123").Return(nil)

	err := suite.usecase.DeleteSession(ctx, "user-123", "s1")

	require.NoError(suite.T(), err)
}

func (suite *SessionUsecaseTestSuite) TestDeleteSession_Unowned() {
	ctx := context.Background()
	suite.sessions.On("DeleteSession", ctx, "s1", "intruder").Return(model.ErrSessionNotFound)

	err := suite.usecase.DeleteSession(ctx, "intruder", "s1")

	assert.ErrorIs(suite.T(), err, model.ErrSessionNotFound)
}

func (suite *SessionUsecaseTestSuite) TestResolveSession_Owned() {
	ctx := context.Background()
	suite.sessions.On("GetSessionForUser", ctx, "s1", "user-123").
		Return(&model.Session{ID: "s1", UserID: "user-123"}, nil)

	err := suite.usecase.ResolveSession(ctx, "user-123", "s1")

	require.NoError(suite.T(), err)
}

func (suite *SessionUsecaseTestSuite) TestResolveSession_Unowned() {
	ctx := context.Background()
	suite.sessions.On("GetSessionForUser", ctx, "s1", "intruder").
		Return(nil, model.ErrSessionNotFound)

	err := suite.usecase.ResolveSession(ctx, "intruder", "s1")

	assert.ErrorIs(suite.T(), err, model.ErrSessionNotFound)
}

func (suite *SessionUsecaseTestSuite) TestListMessages_ResolvesOwnershipFirst() {
	ctx := context.Background()
	suite.sessions.On("GetSessionForUser", ctx, "s1", "intruder").
		Return(nil, model.ErrSessionNotFound)

	messages, err := suite.usecase.ListMessages(ctx, "intruder", "s1")

	assert.ErrorIs(suite.T(), err, model.ErrSessionNotFound)
	assert.Nil(suite.T(), messages)
	suite.messages.AssertNotCalled(suite.T(), "ListBySession")
}

func (suite *SessionUsecaseTestSuite) TestListMessages_Success() {
	ctx := context.Background()
	transcript := []*model.Message{
		{ID: "m1", SessionID: "s1", Sender: model.SenderUser, Content: "hi"},
		{ID: "m2", SessionID: "s1", Sender: model.SenderBot, Content: "hello"},
	}
	suite.sessions.On("GetSessionForUser", ctx, "s1", "user-123").
		Return(&model.Session{ID: "s1", UserID: "user-123"}, nil)
	suite.messages.On("ListBySession", ctx, "s1").Return(transcript, nil)

	messages, err := suite.usecase.ListMessages(ctx, "user-123", "s1")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), transcript, messages)
}

func TestSessionUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(SessionUsecaseTestSuite))
}
