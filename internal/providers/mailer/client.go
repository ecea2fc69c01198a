// Package mailer delivers card notification emails through Resend.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers"
)

const (
	providerName = "resend"

	// DefaultFrom is used when Config.From is empty.
	DefaultFrom    = "SongCards <cards@songcards.app>"
	defaultTimeout = 15 * time.Second
)

// Config captures the runtime settings for email delivery.
type Config struct {
	APIKey  string
	From    string
	Timeout time.Duration
}

// Message is one card notification.
type Message struct {
	RecipientEmail string
	RecipientName  string
	SenderName     string
	CardURL        string
	CustomMessage  string
	Occasion       domain.Occasion
}

// Sender is the subset of the Resend emails service the client uses.
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Client renders and sends card emails.
type Client struct {
	emails  Sender
	from    string
	timeout time.Duration
}

// NewClient constructs a Client backed by the Resend API.
func NewClient(cfg Config) *Client {
	rc := resend.NewClient(strings.TrimSpace(cfg.APIKey))
	return NewClientWithSender(cfg, rc.Emails)
}

// NewClientWithSender constructs a Client around an existing Sender.
func NewClientWithSender(cfg Config, s Sender) *Client {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = DefaultFrom
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{emails: s, from: from, timeout: timeout}
}

// Send renders msg and hands it to the provider, returning the provider's
// message id. Provider refusals wrap providers.ErrDelivery and keep the
// provider's text in Body.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	html, err := RenderHTML(msg)
	if err != nil {
		return "", providers.Wrap(providerName, "send", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sent, err := c.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.RecipientEmail},
		Subject: domain.EmailSubject(msg.Occasion, msg.SenderName),
		Html:    html,
	})
	if err != nil {
		return "", &providers.AdapterError{
			Provider: providerName,
			Op:       "send",
			Body:     err.Error(),
			Timeout:  providers.IsTimeout(err),
			Err:      errors.Join(providers.ErrDelivery, err),
		}
	}
	if sent == nil || sent.Id == "" {
		return "", &providers.AdapterError{Provider: providerName, Op: "send", Body: "response without message id", Err: providers.ErrDelivery}
	}
	return sent.Id, nil
}

type emailView struct {
	RecipientName string
	SenderName    string
	CardURL       string
	CustomMessage string
	OccasionName  string
	Emoji         string
	Greeting      string
}

// RenderHTML renders the notification body. The card URL is the call to
// action; a custom message, when present, is quoted and attributed to the
// sender.
func RenderHTML(msg Message) (string, error) {
	oc := msg.Occasion.Config()
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, emailView{
		RecipientName: msg.RecipientName,
		SenderName:    msg.SenderName,
		CardURL:       msg.CardURL,
		CustomMessage: strings.TrimSpace(msg.CustomMessage),
		OccasionName:  strings.ToLower(oc.Name),
		Emoji:         oc.Emoji,
		Greeting:      oc.Greeting,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

var emailTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>A {{.OccasionName}} song for {{.RecipientName}}</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;background-color:#f8f4ff;">
  <div style="max-width:600px;margin:0 auto;padding:40px 20px;">
    <div style="text-align:center;margin-bottom:32px;">
      <div style="font-size:48px;margin-bottom:16px;">{{.Emoji}}</div>
      <h1 style="color:#6b21a8;font-size:28px;margin:0 0 8px 0;">You've got a {{.OccasionName}} surprise!</h1>
      <p style="color:#7c3aed;font-size:18px;margin:0;">{{.SenderName}} created a special song just for you</p>
    </div>
    <div style="background:linear-gradient(135deg,#a855f7,#6366f1);border-radius:16px;padding:32px;margin-bottom:24px;text-align:center;">
      <div style="font-size:64px;margin-bottom:16px;">🎵</div>
      <h2 style="color:white;font-size:24px;margin:0 0 8px 0;">{{.Greeting}}, {{.RecipientName}}!</h2>
      <p style="color:rgba(255,255,255,0.9);font-size:16px;margin:0;">A personalized song awaits you</p>
    </div>
{{- if .CustomMessage}}
    <blockquote style="background:white;border-radius:12px;padding:20px;margin:0 0 24px 0;border-left:4px solid #a855f7;">
      <p style="color:#4b5563;font-size:16px;margin:0;font-style:italic;">&ldquo;{{.CustomMessage}}&rdquo;</p>
      <footer style="color:#7c3aed;font-size:14px;margin:12px 0 0 0;font-weight:600;">&mdash; {{.SenderName}}</footer>
    </blockquote>
{{- end}}
    <div style="text-align:center;margin-bottom:32px;">
      <a href="{{.CardURL}}" style="display:inline-block;background:linear-gradient(135deg,#a855f7,#6366f1);color:white;text-decoration:none;padding:16px 48px;border-radius:50px;font-size:18px;font-weight:600;">Open Your Card 🎁</a>
    </div>
    <div style="text-align:center;color:#9ca3af;font-size:14px;">
      <p style="margin:0 0 8px 0;">Made with ❤️ by SongCards</p>
      <p style="margin:0;">AI-powered personalized songs</p>
    </div>
  </div>
</body>
</html>
`))
