package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type Push struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type MulticastResult struct {
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	FailedTokens []string `json:"failedTokens"`
}

type TopicResult struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// Identity is what a verified Firebase ID token tells us about the caller.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// Firebase wraps the messaging and auth clients of one app.
type Firebase struct {
	msg  *messaging.Client
	auth *auth.Client
}

func NewFirebase(ctx context.Context, credentialsFile string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	msg, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	au, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &Firebase{msg: msg, auth: au}, nil
}

func notification(title, body string) *messaging.Notification {
	return &messaging.Notification{Title: title, Body: body}
}

func (f *Firebase) Send(ctx context.Context, p Push) (string, error) {
	return f.msg.Send(ctx, &messaging.Message{
		Token:        p.Token,
		Notification: notification(p.Title, p.Body),
		Data:         p.Data,
	})
}

func (f *Firebase) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (MulticastResult, error) {
	resp, err := f.msg.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: notification(title, body),
		Data:         data,
	})
	if err != nil {
		return MulticastResult{}, err
	}
	out := MulticastResult{SuccessCount: resp.SuccessCount, FailureCount: resp.FailureCount, FailedTokens: []string{}}
	for i, r := range resp.Responses {
		if !r.Success {
			out.FailedTokens = append(out.FailedTokens, tokens[i])
		}
	}
	return out, nil
}

func (f *Firebase) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error) {
	return f.msg.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: notification(title, body),
		Data:         data,
	})
}

func (f *Firebase) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (TopicResult, error) {
	r, err := f.msg.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return TopicResult{}, err
	}
	return TopicResult{SuccessCount: r.SuccessCount, FailureCount: r.FailureCount}, nil
}

func (f *Firebase) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (TopicResult, error) {
	r, err := f.msg.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return TopicResult{}, err
	}
	return TopicResult{SuccessCount: r.SuccessCount, FailureCount: r.FailureCount}, nil
}

// VerifyIDToken checks a client-side Firebase login.
func (f *Firebase) VerifyIDToken(ctx context.Context, idToken string) (Identity, error) {
	tok, err := f.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, err
	}
	str := func(k string) string {
		s, _ := tok.Claims[k].(string)
		return s
	}
	return Identity{UID: tok.UID, Email: str("email"), Name: str("name"), Picture: str("picture")}, nil
}
