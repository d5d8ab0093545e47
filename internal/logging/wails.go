package logging

import (
	"go.uber.org/zap"
)

// WailsLogger satisfies the Wails logger.Logger interface on top of zap.
type WailsLogger struct {
	log *zap.Logger
}

func NewWailsLogger(logger *zap.Logger) *WailsLogger {
	return &WailsLogger{log: OrNop(logger).Named("wails")}
}

func (l *WailsLogger) Print(message string)   { l.log.Info(message) }
func (l *WailsLogger) Trace(message string)   { l.log.Debug(message) }
func (l *WailsLogger) Debug(message string)   { l.log.Debug(message) }
func (l *WailsLogger) Info(message string)    { l.log.Info(message) }
func (l *WailsLogger) Warning(message string) { l.log.Warn(message) }
func (l *WailsLogger) Error(message string)   { l.log.Error(message) }
func (l *WailsLogger) Fatal(message string)   { l.log.Fatal(message) }
