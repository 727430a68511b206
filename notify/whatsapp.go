package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"
	"strings"
	"time"
)

// WAError is the error object the Graph API returns.
type WAError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *WAError) Error() string {
	return fmt.Sprintf("whatsapp: %d %s (code %d)", e.Status, e.Message, e.Code)
}

var invalidRecipient = regexp.MustCompile(`(?i)invalid.*whatsapp.*number|not a valid.*whatsapp`)

// IsNonFatal reports whether err only says the recipient cannot be reached on
// WhatsApp.
func IsNonFatal(err error) bool {
	var wa *WAError
	if !errors.As(err, &wa) {
		return false
	}
	return wa.Code == 100 && invalidRecipient.MatchString(wa.Message)
}

type WhatsApp struct {
	base  string
	token string
	http  *http.Client
}

func NewWhatsApp(baseURL, phoneNumberID, token string) *WhatsApp {
	return &WhatsApp{
		base:  strings.TrimRight(baseURL, "/") + "/" + phoneNumberID,
		token: token,
		http:  &http.Client{Timeout: 20 * time.Second},
	}
}

// UploadMedia stores data with WhatsApp and returns the media id.
func (w *WhatsApp) UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("messaging_product", "whatsapp")
	_ = mw.WriteField("type", mimeType)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := w.do(ctx, "/media", mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

type waParam struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Image map[string]any `json:"image,omitempty"`
}

type waComponent struct {
	Type       string    `json:"type"`
	Parameters []waParam `json:"parameters"`
}

// SendTemplate sends a template with an image header and ordered body
// variables.
func (w *WhatsApp) SendTemplate(ctx context.Context, to, template, lang, headerMediaID string, vars []string) error {
	body := make([]waParam, 0, len(vars))
	for _, v := range vars {
		body = append(body, waParam{Type: "text", Text: v})
	}
	components := []waComponent{}
	if headerMediaID != "" {
		components = append(components, waComponent{
			Type:       "header",
			Parameters: []waParam{{Type: "image", Image: map[string]any{"id": headerMediaID}}},
		})
	}
	components = append(components, waComponent{Type: "body", Parameters: body})

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":       template,
			"language":   map[string]string{"code": lang},
			"components": components,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.do(ctx, "/messages", "application/json", bytes.NewReader(raw), nil)
}

func (w *WhatsApp) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		var env struct {
			Error WAError `json:"error"`
		}
		_ = json.Unmarshal(raw, &env)
		env.Error.Status = resp.StatusCode
		if env.Error.Message == "" {
			env.Error.Message = http.StatusText(resp.StatusCode)
		}
		return &env.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
