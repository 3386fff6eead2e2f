// Package mail delivers outgoing email. Production deployments hand messages
// to an external sender through a Redis list; local setups append them to an
// outbox file.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is one outgoing email.
type Message struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Mailer sends a message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// stamp fills the server-managed fields.
func stamp(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	return msg
}

// ConfirmationMessage builds the email carrying a signup confirmation code.
func ConfirmationMessage(from, to, username, code string) Message {
	return Message{
		From:    from,
		To:      []string{to},
		Subject: "YaMDb confirmation code",
		Body: fmt.Sprintf(
			"Hello, %s!\n\nUse this confirmation code to get your access token:\n\n%s\n",
			username, code,
		),
	}
}
