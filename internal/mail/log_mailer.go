package mail

import (
	"context"

	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// LogMailer writes messages to the application log only.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	msg = stamp(msg)
	logger.Log.Info("Mail: message",
		zap.String("message_id", msg.ID),
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
