package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/acg-climbing/sessions-api/internal/realtime"
)

// publish reports a committed write. The write already happened, so a feed
// failure is logged and never fails the request.
func publish(ctx context.Context, feed realtime.Publisher, change realtime.Change) {
	if feed == nil {
		return
	}

	if err := feed.Publish(ctx, change); err != nil {
		zap.L().Warn("publishing change failed",
			zap.String("table", string(change.Table)),
			zap.String("op", string(change.Op)),
			zap.String("event_id", change.EventID.String()),
			zap.Error(err))
	}
}
