package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SMSGateway sends OTP texts through an HTTP GET gateway.
type SMSGateway struct {
	base     string
	authKey  string
	sender   string
	template string
	http     *http.Client
}

func NewSMSGateway(baseURL, authKey, sender, template string) *SMSGateway {
	return &SMSGateway{
		base:     baseURL,
		authKey:  authKey,
		sender:   sender,
		template: template,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendOTP formats code into the message template (one %s) and sends it.
func (g *SMSGateway) SendOTP(ctx context.Context, phone, code string) error {
	q := url.Values{}
	q.Set("authkey", g.authKey)
	q.Set("mobiles", phone)
	q.Set("sender", g.sender)
	q.Set("route", "4")
	q.Set("country", "91")
	q.Set("message", fmt.Sprintf(g.template, code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms: gateway returned %d", resp.StatusCode)
	}
	return nil
}
