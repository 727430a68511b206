package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsApp_UploadAndSendTemplate(t *testing.T) {
	var sent map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/PID/media":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whatsapp", r.FormValue("messaging_product"))
			f, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, "ticket.png", hdr.Filename)
			b, _ := io.ReadAll(f)
			assert.Equal(t, "png-bytes", string(b))
			_, _ = w.Write([]byte(`{"id":"media-1"}`))
		case "/PID/messages":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			_, _ = w.Write([]byte(`{"messages":[{"id":"wamid"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	wa := NewWhatsApp(srv.URL, "PID", "tok")
	ctx := context.Background()
	id, err := wa.UploadMedia(ctx, []byte("png-bytes"), "image/png", "ticket.png")
	require.NoError(t, err)
	assert.Equal(t, "media-1", id)

	require.NoError(t, wa.SendTemplate(ctx, "919000000000", "event_booking_en", "en", id, []string{"Asha", "Kirtan"}))
	assert.Equal(t, "919000000000", sent["to"])
	tpl := sent["template"].(map[string]any)
	assert.Equal(t, "event_booking_en", tpl["name"])
	comps := tpl["components"].([]any)
	require.Len(t, comps, 2)
	body := comps[1].(map[string]any)["parameters"].([]any)
	assert.Equal(t, "Kirtan", body[1].(map[string]any)["text"])
}

func TestWhatsApp_ErrorClassification(t *testing.T) {
	msg := `{"error":{"code":100,"type":"OAuthException","message":"(#100) Invalid parameter: not a valid WhatsApp user number"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(msg))
	}))
	defer srv.Close()

	err := NewWhatsApp(srv.URL, "PID", "tok").SendTemplate(context.Background(), "1", "t", "en", "", nil)
	require.Error(t, err)
	var wa *WAError
	require.ErrorAs(t, err, &wa)
	assert.Equal(t, 100, wa.Code)
	assert.Equal(t, http.StatusBadRequest, wa.Status)

	assert.True(t, IsNonFatal(&WAError{Code: 100, Message: "Recipient is not a valid WhatsApp number"}))
	assert.True(t, IsNonFatal(&WAError{Code: 100, Message: "invalid whatsapp phone number"}))
	assert.False(t, IsNonFatal(&WAError{Code: 190, Message: "invalid whatsapp number"}))
	assert.False(t, IsNonFatal(&WAError{Code: 100, Message: "Invalid parameter"}))
	assert.False(t, IsNonFatal(io.EOF))
}

func TestSMSGateway_SendOTP(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{"mobiles": q.Get("mobiles"), "authkey": q.Get("authkey"), "message": q.Get("message")}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	g := NewSMSGateway(srv.URL, "key", "SNDR", "code %s")
	require.NoError(t, g.SendOTP(context.Background(), "9000000000", "4821"))
	assert.Equal(t, map[string]string{"mobiles": "9000000000", "authkey": "key", "message": "code 4821"}, got)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	assert.Error(t, NewSMSGateway(down.URL, "k", "s", "%s").SendOTP(context.Background(), "1", "1"))
}

func TestMailer_Message(t *testing.T) {
	m := NewMailer("smtp.example.com", 587, "bot@example.com", "pw", "inbox@example.com")
	msg := m.message(Mail{ReplyTo: "guest@example.com", Subject: "Hello", HTML: "<p>hi</p>"})
	assert.Equal(t, []string{"inbox@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"guest@example.com"}, msg.GetHeader("Reply-To"))
	assert.Equal(t, []string{"bot@example.com"}, msg.GetHeader("From"))
}
