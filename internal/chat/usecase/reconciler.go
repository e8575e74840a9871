package usecase

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lanyu617/next-chat/internal/chat/domain/repository"
	"github.com/lanyu617/next-chat/internal/shared/logger"
)

// Reconciler periodically scans for sessions whose latest message is a user
// turn that has gone unanswered past a threshold. These are turns where the
// process died between persisting the user message and persisting the bot
// reply. It only reports; operators decide what to do with stuck sessions.
type Reconciler struct {
	messages   repository.MessageRepository
	staleAfter time.Duration
	schedule   string
	logger     logger.Logger
	cron       *cron.Cron
}

func NewReconciler(
	messages repository.MessageRepository,
	schedule string,
	staleAfter time.Duration,
	log logger.Logger,
) *Reconciler {
	return &Reconciler{
		messages:   messages,
		staleAfter: staleAfter,
		schedule:   schedule,
		logger:     log,
		cron:       cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the scan on the cron schedule and begins running it.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.runOnce); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.WithField("schedule", r.schedule).Info("Reconciler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight scan to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Reconciler stopped")
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.staleAfter)
	ids, err := r.messages.FindUnansweredSessions(ctx, cutoff)
	if err != nil {
		r.logger.WithError(err).Error("Reconciler scan failed")
		return
	}
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		r.logger.WithField("session_id", id).
			Warn("Session has an unanswered user turn past threshold")
	}
	r.logger.WithField("count", len(ids)).Warn("Unanswered sessions detected")
}
