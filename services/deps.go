package services

import (
	"context"
	"io"

	"eventhub/notify"
	"eventhub/ticket"
)

// Collaborators outside the process. Each has a real implementation in
// notify, media or ticket.

type Messenger interface {
	UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error)
	SendTemplate(ctx context.Context, to, template, lang, headerMediaID string, vars []string) error
}

type Pusher interface {
	Send(ctx context.Context, p notify.Push) (string, error)
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (notify.MulticastResult, error)
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (notify.TopicResult, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (notify.TopicResult, error)
}

type TicketRenderer interface {
	Render(ctx context.Context, d ticket.Details) ([]byte, error)
}

type ImageHost interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

type Mailer interface {
	Send(ctx context.Context, m notify.Mail) error
}

type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (notify.Identity, error)
}

// Upload is one file from a multipart form.
type Upload struct {
	Filename string
	Body     io.Reader
}
