package auth

import (
	"context"
	"fmt"
)

// Mail copy for the two transactional flows. Bodies are plain text;
// rendering richer templates belongs to the delivering application.
const (
	verificationSubject  = "Verify your email address"
	passwordResetSubject = "Reset your password"
)

func verificationEmailBody(displayName, token string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nUse the following code to verify your email address. It expires in one hour.\n\n%s\n\nIf you did not create this account you can ignore this message.\n",
		displayName,
		token,
	)
}

func passwordResetEmailBody(displayName, token string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your password. Use the following code within one hour.\n\n%s\n\nIf you did not request a reset you can ignore this message.\n",
		displayName,
		token,
	)
}

// LogEmailSender is a development fallback that writes mail to the
// logger instead of delivering it.
type LogEmailSender struct {
	logger Logger
}

var _ EmailSender = (*LogEmailSender)(nil)

// NewLogEmailSender builds the logging sender.
func NewLogEmailSender(logger Logger) *LogEmailSender {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(ctx context.Context, to, subject, textBody string, htmlBody ...string) (EmailResult, error) {
	s.logger.Info("email to=%s subject=%q\n%s", to, subject, textBody)
	return EmailResult{Success: true, MessageID: "logged"}, nil
}
