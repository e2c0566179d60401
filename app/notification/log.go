package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogTransport writes messages to the log instead of sending them. It is the
// default for local runs.
type LogTransport struct {
	logger logrus.FieldLogger
}

func NewLogTransport(logger logrus.FieldLogger) *LogTransport {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(_ context.Context, msg Message) error {
	t.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
		"link":    msg.Link,
	}).Info("Email not sent, log mail driver active")
	t.logger.WithField("tag", msg.Tag).Debug(msg.HTML)
	return nil
}
