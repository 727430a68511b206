package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/models"
	"eventhub/notify"
	"eventhub/ticket"
)

type sentTemplate struct {
	To      string
	MediaID string
	Vars    []string
}

type fakeMessenger struct {
	mu        sync.Mutex
	uploadErr error
	sendErr   error
	sent      []sentTemplate
}

func (m *fakeMessenger) UploadMedia(_ context.Context, data []byte, _, _ string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	if len(data) == 0 {
		return "", errors.New("empty media")
	}
	return "media-1", nil
}

func (m *fakeMessenger) SendTemplate(_ context.Context, to, _, _, mediaID string, vars []string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentTemplate{To: to, MediaID: mediaID, Vars: vars})
	return nil
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) Render(_ context.Context, d ticket.Details) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + d.BookingID), nil
}

type fakePusher struct {
	mu        sync.Mutex
	err       error
	sent      []notify.Push
	batches   [][]string
	topics    []string
	subscribe map[string][]string
}

func (p *fakePusher) Send(_ context.Context, m notify.Push) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, m)
	return "msg-" + m.Token, nil
}

func (p *fakePusher) SendMulticast(_ context.Context, tokens []string, _, _ string, _ map[string]string) (notify.MulticastResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return notify.MulticastResult{}, p.err
	}
	p.batches = append(p.batches, tokens)
	return notify.MulticastResult{SuccessCount: len(tokens)}, nil
}

func (p *fakePusher) SendToTopic(_ context.Context, topic, _, _ string, _ map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return "topic-msg", p.err
}

func (p *fakePusher) SubscribeToTopic(_ context.Context, tokens []string, topic string) (notify.TopicResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subscribe == nil {
		p.subscribe = map[string][]string{}
	}
	p.subscribe[topic] = append(p.subscribe[topic], tokens...)
	return notify.TopicResult{SuccessCount: len(tokens)}, p.err
}

func (p *fakePusher) UnsubscribeFromTopic(_ context.Context, tokens []string, _ string) (notify.TopicResult, error) {
	return notify.TopicResult{SuccessCount: len(tokens)}, p.err
}

type fakeSMS struct {
	mu    sync.Mutex
	err   error
	codes map[string]string
}

func (s *fakeSMS) SendOTP(_ context.Context, phone, code string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[phone] = code
	return nil
}

func (s *fakeSMS) last(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

type fakeMailer struct {
	err  error
	sent []notify.Mail
}

func (m *fakeMailer) Send(_ context.Context, mail notify.Mail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

type fakeIdentity struct {
	id  notify.Identity
	err error
}

func (f fakeIdentity) VerifyIDToken(context.Context, string) (notify.Identity, error) {
	return f.id, f.err
}

// failingReserve makes the last write of the booking transaction fail.
type failingReserve struct {
	models.EventRepository
}

func (failingReserve) ReserveSeats(context.Context, primitive.ObjectID, primitive.ObjectID, int) error {
	return errors.New("write conflict")
}

// staleCapacity rejects every reservation as over capacity and fails every
// event read after the first.
type staleCapacity struct {
	models.EventRepository
	reads int
}

func (r *staleCapacity) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	r.reads++
	if r.reads > 1 {
		return models.Event{}, errors.New("read timeout")
	}
	return r.EventRepository.GetByID(ctx, id)
}

func (*staleCapacity) ReserveSeats(context.Context, primitive.ObjectID, primitive.ObjectID, int) error {
	return models.ErrCapacityExceeded
}

func seedUser(t *testing.T, s *models.Store, name string) models.User {
	t.Helper()
	u := models.User{
		Name:        name,
		Email:       name + "@example.com",
		PhoneNumber: "+91" + name,
		UserType:    models.UserTypeHostAndParticipant,
	}
	require.NoError(t, s.Users.Create(context.Background(), &u))
	return u
}

func seedEvent(t *testing.T, s *models.Store, owner models.User, max *int, approved bool) models.Event {
	t.Helper()
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
		Address: models.EventAddress{
			Address: "12 Temple Road", City: "Pune", State: "MH", PostalCode: "411001", Country: "India",
		},
	}
	require.NoError(t, s.Events.Create(ctx, &e))
	require.NoError(t, s.Users.AddEvent(ctx, owner.ID, e.ID))
	return e
}

func intPtr(n int) *int { return &n }
