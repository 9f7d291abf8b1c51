package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/pkg/config"
	"github.com/uni-iro/mou-registry-api/pkg/jobs"
	"github.com/uni-iro/mou-registry-api/pkg/mailer"
)

type mailPayload struct {
	To      string
	Subject string
	Body    string
}

// MailDispatcher delivers notification emails through a background worker
// queue so workflow requests never wait on SMTP.
type MailDispatcher struct {
	queue   *jobs.Queue
	mailer  mailer.Mailer
	timeout time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewMailDispatcher builds the dispatcher. A nil mailer or a disabled config
// turns Enqueue into a no-op.
func NewMailDispatcher(m mailer.Mailer, cfg config.MailConfig, logger *zap.Logger) *MailDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &MailDispatcher{
		mailer:  m,
		timeout: cfg.SendTimeout,
		logger:  logger,
		enabled: cfg.Enabled && m != nil,
	}
	d.queue = jobs.NewQueue("mail", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return d
}

// Start launches the worker pool.
func (d *MailDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *MailDispatcher) Stop() {
	d.queue.Stop()
}

// Enqueue schedules an email for delivery.
func (d *MailDispatcher) Enqueue(to, subject, body string) error {
	if !d.enabled {
		return nil
	}
	return d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "mail",
		Payload: mailPayload{To: to, Subject: subject, Body: body},
	})
}

func (d *MailDispatcher) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(mailPayload)
	if !ok {
		return fmt.Errorf("unexpected mail payload type %T", job.Payload)
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.mailer.Send(sendCtx, payload.To, payload.Subject, payload.Body); err != nil {
		return fmt.Errorf("send mail to %s: %w", payload.To, err)
	}
	d.logger.Debug("mail delivered", zap.String("to", payload.To), zap.String("subject", payload.Subject))
	return nil
}
