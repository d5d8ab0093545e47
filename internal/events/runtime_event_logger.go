package events

import (
	"go.uber.org/zap"
)

func logRuntimeEvent(logger *zap.Logger, evt StoreEvent) {
	if logger == nil {
		return
	}
	logger.Debug("emitted store event",
		zap.String("name", evt.Name),
		zap.String("id", evt.ID),
		zap.Time("timestamp", evt.Timestamp),
	)
}
