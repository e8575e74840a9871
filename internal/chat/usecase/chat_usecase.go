package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lanyu617/next-chat/internal/chat/adapter/llm"
	"github.com/lanyu617/next-chat/internal/chat/domain/model"
	"github.com/lanyu617/next-chat/internal/chat/domain/repository"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

var ErrContentRequired = errors.New("message content is required")

// upstreamFailureReply is persisted as the bot turn when the completion API
// fails before or during a reply, so the transcript records that the turn
// was answered with an error rather than silently dropped.
const upstreamFailureReply = "Error: Could not get response from AI."

// StreamFlusher is the write side of a chunked HTTP response. Each fragment
// must be flushed immediately so the client sees tokens as they arrive.
type StreamFlusher interface {
	io.Writer
	Flush() error
}

// ChatUsecaseInterface accepts a user message and produces an Exchange that
// relays the model's streamed reply.
type ChatUsecaseInterface interface {
	Send(ctx context.Context, userID, sessionID, content string) (*Exchange, error)
}

type ChatUsecase struct {
	sessions  SessionUsecaseInterface
	messages  repository.MessageRepository
	completer llm.Completer
	timeout   time.Duration
	logger    logger.Logger

	// One lock per in-flight session. Serializes concurrent sends to the
	// same session so interleaved turns cannot corrupt transcript ordering.
	locks *sessionLocks
}

func NewChatUsecase(
	sessions SessionUsecaseInterface,
	messages repository.MessageRepository,
	completer llm.Completer,
	timeout time.Duration,
	log logger.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		sessions:  sessions,
		messages:  messages,
		completer: completer,
		timeout:   timeout,
		logger:    log,
		locks:     newSessionLocks(),
	}
}

var _ ChatUsecaseInterface = (*ChatUsecase)(nil)

// Send validates the request, authorizes the session, persists the user turn
// and returns an Exchange holding the session lock. The caller must invoke
// Relay on the returned Exchange exactly once; Relay releases the lock.
func (uc *ChatUsecase) Send(ctx context.Context, userID, sessionID, content string) (*Exchange, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if err := uc.sessions.ResolveSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	unlock := uc.locks.acquire(sessionID)

	userMsg := &model.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Sender:    model.SenderUser,
		Content:   content,
	}
	if err := uc.messages.AppendMessage(ctx, userMsg); err != nil {
		unlock()
		return nil, err
	}

	// The request context dies when the HTTP handler returns, but the relay
	// runs after that inside the response stream writer. Detach from the
	// request and bound the whole exchange by the upstream timeout instead.
	relayCtx, cancel := context.WithTimeout(context.Background(), uc.timeout)

	return &Exchange{
		uc:        uc,
		sessionID: sessionID,
		userID:    userID,
		prompt:    content,
		ctx:       relayCtx,
		cancel:    cancel,
		unlock:    unlock,
	}, nil
}

// Exchange is one accepted chat turn: the user message is already persisted
// and the session lock is held until Relay finishes.
type Exchange struct {
	uc        *ChatUsecase
	sessionID string
	userID    string
	prompt    string
	ctx       context.Context
	cancel    context.CancelFunc
	unlock    func()
}

// Relay streams the model's reply to w fragment by fragment, then persists
// the bot turn. abort is called when the reply cannot be completed after
// bytes were already written; it should terminate the client connection
// abnormally so the client does not mistake a truncated reply for a full one.
func (e *Exchange) Relay(w StreamFlusher, abort func()) {
	defer e.unlock()
	defer e.cancel()

	log := e.uc.logger.WithContext(e.ctx).
		WithField("session_id", e.sessionID).
		WithField("user_id", e.userID)

	stream, err := e.uc.completer.StreamCompletion(e.ctx, e.prompt)
	if err != nil {
		log.WithError(err).Error("Failed to open completion stream")
		e.persistBotReply(upstreamFailureReply)
		abort()
		return
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			e.persistBotReply(reply.String())
			return
		}
		if err != nil {
			log.WithError(err).Error("Completion stream broke mid-reply")
			e.persistBotReply(upstreamFailureReply)
			abort()
			return
		}
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		if _, err := w.Write([]byte(fragment)); err != nil {
			// Client went away. Stop pulling from upstream and keep what
			// already streamed as the persisted turn.
			log.WithError(err).Warn("Client disconnected during reply")
			e.cancel()
			e.persistBotReply(reply.String())
			return
		}
		if err := w.Flush(); err != nil {
			log.WithError(err).Warn("Client disconnected during reply")
			e.cancel()
			e.persistBotReply(reply.String())
			return
		}
	}
}

func (e *Exchange) persistBotReply(content string) {
	botMsg := &model.Message{
		ID:        uuid.New().String(),
		SessionID: e.sessionID,
		Sender:    model.SenderBot,
		Content:   content,
	}
	// Persist with a fresh deadline: the relay context may already be
	// cancelled, and losing the bot turn here would strand the session in
	// an unanswered state until the reconciler notices.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.uc.messages.AppendMessage(ctx, botMsg); err != nil {
		e.uc.logger.WithContext(ctx).
			WithField("session_id", e.sessionID).
			WithError(err).Error("Failed to persist bot reply")
	}
}
