package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/logger"
	"eventhub/media"
	"eventhub/models"
	"eventhub/otp"
	"eventhub/services"
	"eventhub/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type smsRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *smsRecorder) SendOTP(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = code
	return nil
}

func (s *smsRecorder) code(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

type fixture struct {
	t      *testing.T
	store  *models.Store
	mr     *miniredis.Miniredis
	tokens *utils.Tokens
	images *media.MemoryHost
	sms    *smsRecorder
	admin  *services.AdminService
	router *gin.Engine

	mu     sync.Mutex
	nextIP int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := models.NewMemoryStore(nil)
	tokens := utils.NewTokens("test-secret", time.Hour)
	images := media.NewMemoryHost()
	sms := &smsRecorder{codes: map[string]string{}}
	admin := services.NewAdminService(store, tokens, images, nil, nil, nil)

	r := gin.New()
	stop := RegisterRoutes(r, Options{
		Accounts:   services.NewAccountService(store, otp.NewMemoryStore(), sms, tokens, nil, images, nil),
		Events:     services.NewEventService(store, images, nil),
		Bookings:   services.NewBookingService(store, nil, nil, nil, services.BookingConfig{}, nil),
		Social:     services.NewSocialService(store),
		Admin:      admin,
		Tokens:     tokens,
		Redis:      rdb,
		Cache:      utils.NewCacheInvalidator(rdb),
		CacheTTL:   time.Minute,
		DailyQuota: 1000,
	})
	t.Cleanup(stop)

	return &fixture{t: t, store: store, mr: mr, tokens: tokens, images: images, sms: sms, admin: admin, router: r}
}

// serve sends req from a fresh client address so per-IP limits stay out of
// the way unless a test pins the address itself.
func (f *fixture) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if req.RemoteAddr == "" || req.RemoteAddr == "192.0.2.1:1234" {
		f.mu.Lock()
		f.nextIP++
		n := f.nextIP
		f.mu.Unlock()
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:1234", n/250, n%250+1)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.serve(req, token)
}

func (f *fixture) form(method, path, token string, fields, files map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(f.t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(name, name+".jpg")
		require.NoError(f.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(f.t, err)
	}
	require.NoError(f.t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.serve(req, token)
}

func (f *fixture) user(name string) (models.User, string) {
	f.t.Helper()
	u := models.User{
		Name:        name,
		Email:       name + "@example.com",
		PhoneNumber: "+91" + name,
		UserType:    models.UserTypeHostAndParticipant,
	}
	require.NoError(f.t, f.store.Users.Create(context.Background(), &u))
	tok, err := f.tokens.GenerateToken(u.Email, u.ID.Hex(), utils.RoleUser)
	require.NoError(f.t, err)
	return u, tok
}

func (f *fixture) adminToken() string {
	f.t.Helper()
	a, err := f.admin.Signup(context.Background(), services.AdminSignup{Name: "Root", Email: "root@example.com", Password: "Secret#123"})
	require.NoError(f.t, err)
	tok, err := f.tokens.GenerateToken(a.Email, a.ID.Hex(), utils.RoleAdmin)
	require.NoError(f.t, err)
	return tok
}

func (f *fixture) event(owner models.User, max *int, approved bool) models.Event {
	f.t.Helper()
	ctx := context.Background()
	e := models.Event{
		EventName:     "Evening Satsang",
		EventCategory: []string{"Spiritual"},
		EventPosters:  []string{"https://cdn.example.com/p.jpg"},
		OrganizerName: "Sangha",
		MaxAttendees:  max,
		Approved:      approved,
		User:          owner.ID,
		StartDate:     time.Now().Add(24 * time.Hour),
		EndDate:       time.Now().Add(26 * time.Hour),
		StartTime:     "18:00",
		EndTime:       "20:00",
	}
	require.NoError(f.t, f.store.Events.Create(ctx, &e))
	require.NoError(f.t, f.store.Users.AddEvent(ctx, owner.ID, e.ID))
	return e
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const eventData = `{
	"eventName": "Kirtan Night",
	"eventCategory": "Music, devotional",
	"eventPrice": 250,
	"maxAttendees": "80",
	"startDate": "2030-03-01",
	"endDate": "2030-03-01T22:00",
	"startTime": "19:00",
	"endTime": "22:00",
	"locationLink": "https://maps.google.com/?q=12.9716,77.5946",
	"address": {"address": "1 MG Road", "city": "Bengaluru", "state": "KA", "postalCode": "560001", "country": "India"}
}`

/* ---- auth wiring ---- */

func TestProtectedRoutesNeedToken(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/user"},
		{http.MethodPost, "/booking"},
		{http.MethodGet, "/subscription/subscribers"},
		{http.MethodPost, "/events"},
		{http.MethodGet, "/event/like/user"},
	} {
		w := f.do(tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/", "", nil).Code)
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	f := newFixture(t)
	_, userTok := f.user("asha")

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/admin/analytics", userTok, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/notifications/send-to-topic", userTok, gin.H{}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/admin/signup", userTok, gin.H{}).Code)

	w := f.do(http.MethodGet, "/admin/analytics", f.adminToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["users"])
}

func TestPushWithoutProviderIs503(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/notifications/send-to-topic", f.adminToken(), gin.H{"topic": "news", "title": "t", "body": "b"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

/* ---- accounts ---- */

func TestSignupLoginFlow(t *testing.T) {
	f := newFixture(t)
	signup := gin.H{
		"name":        "Asha",
		"email":       "asha@example.com",
		"phoneNumber": "+919812345678",
		"password":    "Secret#123",
		"userType":    models.UserTypeHostAndParticipant,
		"fcmToken":    "device-1",
	}
	w := f.do(http.MethodPost, "/user/signup/sendotp", "", signup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code := f.sms.code("+919812345678")
	require.Len(t, code, 4)

	w = f.do(http.MethodPost, "/user/signup/verifyotp", "", gin.H{"phoneNumber": "+919812345678", "otp": "0000"})
	if code != "0000" {
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w = f.do(http.MethodPost, "/user/signup/verifyotp", "", gin.H{"phoneNumber": "+919812345678", "otp": code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, w.Body.String(), "Secret#123")

	w = f.do(http.MethodPost, "/user/login", "", gin.H{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/user/login", "", gin.H{"email": "asha@example.com", "password": "Secret#123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = f.do(http.MethodGet, "/checkuser?email=asha@example.com", "", nil)
	assert.Equal(t, true, decode(t, w)["exists"])

	w = f.do(http.MethodGet, "/user/insight", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUserOnlySelf(t *testing.T) {
	f := newFixture(t)
	a, aTok := f.user("asha")
	b, _ := f.user("bala")

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/user/"+b.ID.Hex(), aTok, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/user/"+a.ID.Hex(), aTok, nil).Code)
	_, err := f.store.Users.GetByID(context.Background(), a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

/* ---- events ---- */

func TestCreateEventForm(t *testing.T) {
	f := newFixture(t)
	_, tok := f.user("host")

	w := f.form(http.MethodPost, "/events", tok, map[string]string{"eventData": eventData}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At least one event poster is required", decode(t, w)["message"])

	w = f.form(http.MethodPost, "/events", tok, map[string]string{"eventData": "{not json"}, map[string]string{"poster1": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.form(http.MethodPost, "/events", tok, map[string]string{"eventData": `{"eventName":"Kirtan","eventLink":"not a url"}`}, map[string]string{"poster1": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.form(http.MethodPost, "/events", tok, map[string]string{"eventData": eventData}, map[string]string{"poster1": "a", "poster2": "b"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ev := decode(t, w)["event"].(map[string]any)
	assert.Equal(t, false, ev["approved"])
	assert.Len(t, ev["eventPosters"], 2)
	assert.Equal(t, 2, f.images.Len())
}

func TestEventReadsAreCachedAndPurged(t *testing.T) {
	f := newFixture(t)
	host, _ := f.user("host")
	_, guestTok := f.user("guest")
	e := f.event(host, nil, false)
	adminTok := f.adminToken()

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/events", "", nil).Code)

	require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/admin/approve/"+e.ID.Hex(), adminTok, nil).Code)

	w := f.do(http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", f.do(http.MethodGet, "/events", "", nil).Header().Get("X-Cache"))

	path := "/events/" + e.ID.Hex()
	w = f.do(http.MethodGet, path, guestTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["event"].(map[string]any)["isLiked"])

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/event/like/"+e.ID.Hex(), guestTok, nil).Code)

	w = f.do(http.MethodGet, path, guestTok, nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	ev := decode(t, w)["event"].(map[string]any)
	assert.Equal(t, true, ev["isLiked"])
	assert.EqualValues(t, 1, ev["likeCount"])
	assert.Equal(t, "MISS", f.do(http.MethodGet, "/events", "", nil).Header().Get("X-Cache"))
}

func TestUpdateAndDeleteEventOwnership(t *testing.T) {
	f := newFixture(t)
	host, hostTok := f.user("host")
	_, otherTok := f.user("other")
	e := f.event(host, nil, true)
	path := "/events/" + e.ID.Hex()

	w := f.form(http.MethodPut, path, otherTok, map[string]string{"eventData": `{"eventName":"Hijacked"}`}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.form(http.MethodPut, path, hostTok, map[string]string{"eventData": `{"eventName":"Morning Satsang"}`}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Morning Satsang", decode(t, w)["event"].(map[string]any)["eventName"])

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, otherTok, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, path, hostTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, "", nil).Code)
}

func TestNearbyNeedsCoordinates(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/events/nearby?lat=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

/* ---- bookings ---- */

func TestBookingCapacityAndRelease(t *testing.T) {
	f := newFixture(t)
	host, _ := f.user("host")
	_, guestTok := f.user("guest")
	max := 5
	e := f.event(host, &max, true)

	w := f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex(), "attendeeContact": "+919800000000", "noOfAttendee": 6})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 5, body["max"])
	assert.EqualValues(t, 0, body["current"])

	w = f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex(), "attendeeContact": "+919800000000", "noOfAttendee": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["booking"].(map[string]any)["_id"].(string)

	got, err := f.store.Events.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentNoOfAttendees)

	w = f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex(), "attendeeContact": "+919800000000", "noOfAttendee": "9000000000000000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	got, err = f.store.Events.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentNoOfAttendees)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/booking/"+id, guestTok, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/booking/"+id, guestTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/booking/"+id, guestTok, nil).Code)

	got, err = f.store.Events.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentNoOfAttendees)
}

func TestBookingDeleteByStrangerIs403(t *testing.T) {
	f := newFixture(t)
	host, hostTok := f.user("host")
	_, guestTok := f.user("guest")
	_, strangerTok := f.user("stranger")
	e := f.event(host, nil, true)

	w := f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex(), "attendeeContact": "+919800000000", "noOfAttendee": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["booking"].(map[string]any)["_id"].(string)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, "/booking/"+id, strangerTok, nil).Code)
	got, err := f.store.Events.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentNoOfAttendees)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/booking/"+id, hostTok, nil).Code)
	got, err = f.store.Events.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentNoOfAttendees)
}

func TestBookingPendingEventIs403(t *testing.T) {
	f := newFixture(t)
	host, _ := f.user("host")
	_, guestTok := f.user("guest")
	e := f.event(host, nil, false)

	w := f.do(http.MethodPost, "/booking", guestTok, gin.H{"event": e.ID.Hex(), "attendeeContact": "+919800000000", "noOfAttendee": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

/* ---- social ---- */

func TestSubscriptionRoutes(t *testing.T) {
	f := newFixture(t)
	a, aTok := f.user("asha")
	b, _ := f.user("bala")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/subscription/toggle/"+a.ID.Hex(), aTok, nil).Code)

	w := f.do(http.MethodPost, "/subscription/toggle/"+b.ID.Hex(), aTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["subscribed"])

	w = f.do(http.MethodGet, "/subscription/count/"+b.ID.Hex(), aTok, nil)
	assert.EqualValues(t, 1, decode(t, w)["subscribers"])

	w = f.do(http.MethodGet, "/subscription/status/"+b.ID.Hex(), aTok, nil)
	assert.Equal(t, true, decode(t, w)["isSubscribed"])
}

/* ---- blogs ---- */

func TestBlogRoutes(t *testing.T) {
	f := newFixture(t)
	adminTok := f.adminToken()

	w := f.form(http.MethodPost, "/admin/blog", adminTok, map[string]string{"blogData": `{"title":"Hello","content":"World"}`}, map[string]string{"img": "x"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["blog"].(map[string]any)["_id"].(string)

	assert.Equal(t, "MISS", f.do(http.MethodGet, "/admin/blog", "", nil).Header().Get("X-Cache"))
	assert.Equal(t, "HIT", f.do(http.MethodGet, "/admin/blog", "", nil).Header().Get("X-Cache"))

	w = f.do(http.MethodDelete, "/admin/blog/"+id, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.images.Len())
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/admin/blog", "", nil).Code)
}

/* ---- limits ---- */

func TestAuthEndpointsAreThrottled(t *testing.T) {
	f := newFixture(t)
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.9.9.9:1234"
		return f.serve(req, "").Code
	}
	assert.NotEqual(t, http.StatusTooManyRequests, send())
	assert.NotEqual(t, http.StatusTooManyRequests, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRespondErrorStatuses(t *testing.T) {
	d := &deps{log: logger.Discard()}
	cases := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Msg: "bad"}, http.StatusBadRequest},
		{&services.ValidationError{Msg: "bad", Unprocessable: true}, http.StatusUnprocessableEntity},
		{&services.CapacityError{Max: 2, Current: 2}, http.StatusBadRequest},
		{&services.DeliveryError{Err: errors.New("wa down")}, http.StatusBadGateway},
		{services.ErrOTPExpired, http.StatusBadRequest},
		{&services.AuthError{Msg: "no"}, http.StatusUnauthorized},
		{services.ErrNotApproved, http.StatusForbidden},
		{&services.ForbiddenError{Msg: "no"}, http.StatusForbidden},
		{&services.NotFoundError{Msg: "gone"}, http.StatusNotFound},
		{&services.ConflictError{Msg: "dup"}, http.StatusConflict},
		{fmt.Errorf("push: %w", services.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		d.respondError(c, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
		assert.Equal(t, false, decode(t, w)["success"])
	}
}
