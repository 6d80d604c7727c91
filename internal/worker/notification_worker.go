package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// NotificationWorker consumes the change feed and re-derives alert
// summaries. Aggregates are recomputed from source tables on every delivery
// rather than patched incrementally, so duplicate deliveries are harmless.
//
// The alert endpoints recompute from the same source tables on every read
// and do not depend on this worker; it exists to keep derivation warm and
// surface recomputation failures as the feed flows, independent of request
// traffic.
type NotificationWorker struct {
	feed          *events.ChangeFeed
	notifications *service.NotificationService
	logger        *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(feed *events.ChangeFeed, notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{feed: feed, notifications: notifications, logger: logger}
}

// Start runs the feed consumer until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	go w.feed.Listen(ctx, w.handle)
}

func (w *NotificationWorker) handle(ctx context.Context, notice events.ChangeNotice) {
	departments, err := w.notifications.DepartmentAlerts(ctx)
	if err != nil {
		w.logger.Warn("recompute department alerts failed", zap.Error(err))
		return
	}
	users, err := w.notifications.UserAlerts(ctx)
	if err != nil {
		w.logger.Warn("recompute user alerts failed", zap.Error(err))
		return
	}
	w.logger.Debug("alerts recomputed",
		zap.String("trigger", string(notice.Type)),
		zap.String("ticket_id", notice.TicketID),
		zap.Int("department_alerts", len(departments)),
		zap.Int("user_alerts", len(users)),
	)
}
