package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"eventhub/logger"
	"eventhub/models"
	"eventhub/notify"
	"eventhub/ticket"
)

type BookingConfig struct {
	Template    string
	Language    string
	FrontendURL string
}

// BookingService creates bookings: validate, resolve, authorize, check
// capacity, commit, then deliver the ticket best effort.
type BookingService struct {
	store   *models.Store
	tickets TicketRenderer
	wa      Messenger
	push    Pusher
	cfg     BookingConfig
	log     *slog.Logger
}

// NewBookingService wires the flow. wa and push may be nil, in which case
// that delivery step is skipped.
func NewBookingService(store *models.Store, tickets TicketRenderer, wa Messenger, push Pusher, cfg BookingConfig, log *slog.Logger) *BookingService {
	if log == nil {
		log = logger.Discard()
	}
	return &BookingService{store: store, tickets: tickets, wa: wa, push: push, cfg: cfg, log: log}
}

type BookingRequest struct {
	Event           string       `json:"event"`
	AttendeeContact string       `json:"attendeeContact"`
	NoOfAttendee    models.Count `json:"noOfAttendee"`
	AmountPaid      json.Number  `json:"amountPaid"`
	PaymentID       *string      `json:"paymentId"`
	User            string       `json:"user"`
}

var bookingFields = []string{"event", "attendeeContact", "noOfAttendee", "user"}

func (r BookingRequest) validate() error {
	if strings.TrimSpace(r.Event) == "" || strings.TrimSpace(r.AttendeeContact) == "" ||
		r.NoOfAttendee <= 0 || strings.TrimSpace(r.User) == "" {
		return invalid("Missing required fields", bookingFields...)
	}
	if r.AmountPaid != "" {
		if _, err := r.AmountPaid.Float64(); err != nil {
			return invalid("amountPaid must be a number")
		}
	}
	return nil
}

func (s *BookingService) Create(ctx context.Context, req BookingRequest) (models.Booking, error) {
	const op = "services.BookingService.Create"
	log := s.log.With(slog.String("op", op))

	if err := req.validate(); err != nil {
		return models.Booking{}, err
	}
	eventID, err := parseID(req.Event, "Event")
	if err != nil {
		return models.Booking{}, notFound("Event not found with given ID")
	}
	userID, err := parseID(req.User, "User")
	if err != nil {
		return models.Booking{}, notFound("User not found with given ID")
	}

	var (
		event models.Event
		user  models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if event, err = s.store.Events.GetByID(gctx, eventID); errors.Is(err, models.ErrNotFound) {
			return notFound("Event not found with given ID")
		}
		return err
	})
	g.Go(func() error {
		var err error
		if user, err = s.store.Users.GetByID(gctx, userID); errors.Is(err, models.ErrNotFound) {
			return notFound("User not found with given ID")
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Booking{}, err
	}

	n := int(req.NoOfAttendee)
	if !event.Approved {
		return models.Booking{}, ErrNotApproved
	}
	if !event.HasRoomFor(n) {
		return models.Booking{}, &CapacityError{Max: *event.MaxAttendees, Current: event.CurrentNoOfAttendees}
	}

	amount := string(req.AmountPaid)
	if amount == "" {
		amount = "0"
	}
	booking := models.Booking{
		Event:           eventID,
		AttendeeContact: strings.TrimSpace(req.AttendeeContact),
		NoOfAttendee:    n,
		AmountPaid:      amount,
		PaymentID:       req.PaymentID,
		User:            userID,
	}
	if err := s.commit(ctx, &booking, event); err != nil {
		return models.Booking{}, err
	}
	log.Info("booking committed",
		slog.String("booking", booking.ID.Hex()),
		slog.String("event", eventID.Hex()),
		slog.Int("attendees", n))

	if err := s.deliverTicket(ctx, log, event, user, booking); err != nil {
		return booking, &DeliveryError{Booking: booking, Err: err}
	}
	s.pushConfirmation(ctx, log, event, user, booking)
	return booking, nil
}

// commit writes the booking, both derived lists and the counter in one
// transaction. ReserveSeats re-checks approval and capacity against the
// current document. seen is the event as read before the transaction; it
// fills the capacity error when the current one cannot be read.
func (s *BookingService) commit(ctx context.Context, b *models.Booking, seen models.Event) error {
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		b.ID = primitive.NilObjectID
		if err := s.store.Bookings.Create(ctx, b); err != nil {
			return err
		}
		if err := s.store.Users.AddBooking(ctx, b.User, b.ID); err != nil {
			return err
		}
		return s.store.Events.ReserveSeats(ctx, b.Event, b.ID, b.NoOfAttendee)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrEventNotApproved):
		return ErrNotApproved
	case errors.Is(err, models.ErrCapacityExceeded):
		e, gerr := s.store.Events.GetByID(ctx, b.Event)
		if gerr != nil || e.MaxAttendees == nil {
			e = seen
		}
		if e.MaxAttendees == nil {
			return &CapacityError{Current: e.CurrentNoOfAttendees}
		}
		return &CapacityError{Max: *e.MaxAttendees, Current: e.CurrentNoOfAttendees}
	case errors.Is(err, models.ErrNotFound):
		return notFound("Event not found with given ID")
	}
	return fmt.Errorf("commit booking: %w", err)
}

func venue(a models.EventAddress) string {
	parts := []string{a.Address}
	if a.Landmark != nil && *a.Landmark != "" {
		parts = append(parts, *a.Landmark)
	}
	parts = append(parts, a.City, a.State, a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}

// deliverTicket renders and sends the ticket. It returns an error only for
// failures that are not classified non-fatal.
func (s *BookingService) deliverTicket(ctx context.Context, log *slog.Logger, e models.Event, u models.User, b models.Booking) error {
	if s.wa == nil {
		log.Warn("messaging not configured, ticket not sent", slog.String("booking", b.ID.Hex()))
		return nil
	}

	var poster string
	if len(e.EventPosters) > 0 {
		poster = e.EventPosters[0]
	}
	date := e.StartDate.Format("2 Jan 2006")
	img, err := s.tickets.Render(ctx, ticket.Details{
		Title:     e.EventName,
		Host:      e.OrganizerName,
		Venue:     venue(e.Address),
		Date:      date,
		Time:      e.StartTime,
		Tickets:   b.NoOfAttendee,
		Amount:    b.AmountPaid,
		BookingID: b.ID.Hex(),
		PosterURL: poster,
	})
	if err != nil {
		return fmt.Errorf("render ticket: %w", err)
	}

	mediaID, err := s.wa.UploadMedia(ctx, img, "image/png", "ticket-"+b.ID.Hex()+".png")
	if err == nil {
		vars := []string{
			u.Name,
			b.ID.Hex(),
			e.EventName,
			e.OrganizerName,
			venue(e.Address),
			date + " | " + e.StartTime,
			fmt.Sprint(b.NoOfAttendee),
			b.AmountPaid,
			e.LocationLink,
			s.cfg.FrontendURL + "event/" + e.ID.Hex(),
		}
		err = s.wa.SendTemplate(ctx, b.AttendeeContact, s.cfg.Template, s.cfg.Language, mediaID, vars)
	}
	if err == nil {
		return nil
	}
	if notify.IsNonFatal(err) {
		log.Warn("attendee not reachable on whatsapp", slog.String("booking", b.ID.Hex()), logger.Err(err))
		return nil
	}
	log.Error("ticket delivery failed", slog.String("booking", b.ID.Hex()), logger.Err(err))
	return err
}

func (s *BookingService) pushConfirmation(ctx context.Context, log *slog.Logger, e models.Event, u models.User, b models.Booking) {
	token := u.LatestDeviceToken()
	if s.push == nil || token == "" {
		return
	}
	_, err := s.push.Send(ctx, notify.Push{
		Token: token,
		Title: "Booking Confirmed",
		Body:  fmt.Sprintf("Your booking for %s is confirmed.", e.EventName),
		Data:  map[string]string{"bookingId": b.ID.Hex(), "eventId": e.ID.Hex()},
	})
	if err != nil {
		log.Warn("push notification failed", slog.String("booking", b.ID.Hex()), logger.Err(err))
	}
}

// BookingWithEvent is a booking with its event expanded.
type BookingWithEvent struct {
	models.Booking
	Event *models.Event `json:"event"`
}

func (s *BookingService) Get(ctx context.Context, id string) (BookingWithEvent, error) {
	bid, err := parseID(id, "Booking")
	if err != nil {
		return BookingWithEvent{}, err
	}
	b, err := s.store.Bookings.GetByID(ctx, bid)
	if errors.Is(err, models.ErrNotFound) {
		return BookingWithEvent{}, notFound("Booking not found")
	}
	if err != nil {
		return BookingWithEvent{}, err
	}
	out := BookingWithEvent{Booking: b}
	if e, err := s.store.Events.GetByID(ctx, b.Event); err == nil {
		out.Event = &e
	}
	return out, nil
}

type UserName struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// BookingWithUser is a booking with the booker's name expanded.
type BookingWithUser struct {
	models.Booking
	User *UserName `json:"user"`
}

func (s *BookingService) ByEvent(ctx context.Context, eventID string) ([]BookingWithUser, error) {
	eid, err := parseID(eventID, "Event")
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.Bookings.ByEvent(ctx, eid)
	if err != nil {
		return nil, err
	}
	names := map[primitive.ObjectID]*UserName{}
	out := make([]BookingWithUser, 0, len(bookings))
	for _, b := range bookings {
		n, ok := names[b.User]
		if !ok {
			if u, err := s.store.Users.GetByID(ctx, b.User); err == nil {
				n = &UserName{ID: u.ID, Name: u.Name}
			}
			names[b.User] = n
		}
		out = append(out, BookingWithUser{Booking: b, User: n})
	}
	return out, nil
}

// ByUser lists a user's bookings, newest first.
func (s *BookingService) ByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	uid, err := parseID(userID, "User")
	if err != nil {
		return nil, err
	}
	return s.store.Bookings.ByUser(ctx, uid)
}

// BookedEvents returns the distinct events a user has booked, without their
// booking lists.
func (s *BookingService) BookedEvents(ctx context.Context, userID string) ([]models.Event, error) {
	uid, err := parseID(userID, "User")
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.Bookings.ByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, notFound("No bookings found for the given user")
	}
	seen := map[primitive.ObjectID]bool{}
	events := []models.Event{}
	for _, b := range bookings {
		if seen[b.Event] {
			continue
		}
		seen[b.Event] = true
		e, err := s.store.Events.GetByID(ctx, b.Event)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.Bookings = nil
		events = append(events, e)
	}
	return events, nil
}

// Delete removes a booking; Integrity pulls it from both derived lists and
// gives the seats back. Only the booker, the event's owner or an admin may
// cancel it.
func (s *BookingService) Delete(ctx context.Context, actor primitive.ObjectID, asAdmin bool, id string) (models.Booking, error) {
	bid, err := parseID(id, "Booking")
	if err != nil {
		return models.Booking{}, err
	}
	b, err := s.store.Bookings.GetByID(ctx, bid)
	if errors.Is(err, models.ErrNotFound) {
		return models.Booking{}, notFound("Booking not found")
	}
	if err != nil {
		return models.Booking{}, err
	}
	if !asAdmin && b.User != actor {
		e, err := s.store.Events.GetByID(ctx, b.Event)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return models.Booking{}, err
		}
		if err != nil || e.User != actor {
			return models.Booking{}, &ForbiddenError{Msg: "You don't have permission to cancel this booking"}
		}
	}
	err = s.store.Integrity.DeleteBooking(ctx, bid)
	if errors.Is(err, models.ErrNotFound) {
		return models.Booking{}, notFound("Booking not found")
	}
	if err != nil {
		return models.Booking{}, err
	}
	return b, nil
}
