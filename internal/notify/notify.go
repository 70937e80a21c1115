// Package notify delivers outgoing notifications such as invitation emails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Message is one outgoing notification.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier dispatches messages. A returned error means the message was not
// delivered to the transport.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

var invitationHTML = template.Must(template.New("invitation").Parse(`<p>Hello,</p>
<p>{{.Inviter}} invited you to join <strong>{{.Project}}</strong> as {{.Role}}.</p>
<p><a href="{{.AcceptURL}}">Accept the invitation</a> or <a href="{{.RejectURL}}">decline it</a>.</p>
<p>This link expires in {{.ExpiresIn}}.</p>`))

// Invitation describes an invitation email.
type Invitation struct {
	To          string
	Inviter     string
	Project     string
	Role        string
	Token       string
	FrontendURL string
	ExpiresIn   string
}

// InvitationMessage renders the email for inv. The token travels as a query
// parameter of the accept and reject links.
func InvitationMessage(inv Invitation) (Message, error) {
	base := strings.TrimRight(inv.FrontendURL, "/")
	q := url.Values{"token": {inv.Token}}.Encode()

	data := struct {
		Invitation
		AcceptURL string
		RejectURL string
	}{
		Invitation: inv,
		AcceptURL:  base + "/invitations/accept?" + q,
		RejectURL:  base + "/invitations/reject?" + q,
	}

	var html bytes.Buffer
	if err := invitationHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render invitation: %w", err)
	}

	text := fmt.Sprintf(
		"%s invited you to join %s as %s.\n\nAccept: %s\nDecline: %s\n\nThis link expires in %s.\n",
		inv.Inviter, inv.Project, inv.Role, data.AcceptURL, data.RejectURL, inv.ExpiresIn,
	)

	return Message{
		To:      inv.To,
		Subject: fmt.Sprintf("You have been invited to %s", inv.Project),
		Text:    text,
		HTML:    html.String(),
	}, nil
}
