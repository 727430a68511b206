package services

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/geo"
	"eventhub/logger"
	"eventhub/models"
)

const (
	PosterFolder = "posters"
	maxPosters   = 4
)

type EventService struct {
	store  *models.Store
	images ImageHost
	log    *slog.Logger
	now    func() time.Time
}

func NewEventService(store *models.Store, images ImageHost, log *slog.Logger) *EventService {
	if log == nil {
		log = logger.Discard()
	}
	return &EventService{store: store, images: images, log: log, now: time.Now}
}

/* -------------------- input -------------------- */

// Text accepts a JSON string or number and keeps it as text.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = Text(v)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%s is neither text nor a number", s)
	}
	*t = Text(s)
	return nil
}

// Categories accepts a single category or a list.
type Categories []string

func (c *Categories) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	var list []string
	switch {
	case s == "null":
		return nil
	case strings.HasPrefix(s, "["):
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
	default:
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		list = strings.Split(one, ",")
	}
	*c = normalizeCategories(list)
	return nil
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	return out
}

// EventInput is the eventData document of the create and update forms.
// Absent fields are nil; Create requires the core ones.
type EventInput struct {
	IsPrivate          *bool                `json:"isPrivate"`
	EventName          *string              `json:"eventName" binding:"omitempty,min=2,max=200"`
	EventCategory      Categories           `json:"eventCategory"`
	EventDesc          *string              `json:"eventDesc"`
	EventPrice         *Text                `json:"eventPrice"`
	EventLang          *string              `json:"eventLang"`
	NoOfAttendees      *Text                `json:"noOfAttendees"`
	MaxAttendees       *models.Capacity     `json:"maxAttendees"`
	EventAgenda        []models.AgendaItem  `json:"eventAgenda" binding:"omitempty,dive"`
	ArtistOrOratorName *string              `json:"artistOrOratorName"`
	OrganizerName      *string              `json:"organizerName"`
	OrganizerWhatsapp  *string              `json:"organizerWhatsapp"`
	EventLink          *string              `json:"eventLink" binding:"omitempty,url"`
	BookingLink        *string              `json:"bookingLink" binding:"omitempty,url"`
	LocationLink       *string              `json:"locationLink"`
	Address            *models.EventAddress `json:"address"`
	StartDate          *string              `json:"startDate"`
	EndDate            *string              `json:"endDate"`
	StartTime          *string              `json:"startTime"`
	EndTime            *string              `json:"endTime"`
}

var clock = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (in *EventInput) requireNew() error {
	var missing []string
	blank := func(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }
	if blank(in.EventName) {
		missing = append(missing, "eventName")
	}
	if len(in.EventCategory) == 0 {
		missing = append(missing, "eventCategory")
	}
	if blank(in.StartDate) {
		missing = append(missing, "startDate")
	}
	if blank(in.EndDate) {
		missing = append(missing, "endDate")
	}
	if in.Address == nil {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return invalid("Missing required fields", missing...)
	}
	return nil
}

// patch turns the input into a models.EventPatch. Dates are checked against
// the current values in e so a partial update cannot invert the range.
func (in *EventInput) patch(e models.Event) (models.EventPatch, error) {
	p := models.EventPatch{
		IsPrivate:          in.IsPrivate,
		EventName:          trimmed(in.EventName),
		EventDesc:          in.EventDesc,
		EventPrice:         (*string)(in.EventPrice),
		EventLang:          trimmed(in.EventLang),
		NoOfAttendees:      (*string)(in.NoOfAttendees),
		MaxAttendees:       in.MaxAttendees,
		EventAgenda:        in.EventAgenda,
		ArtistOrOratorName: trimmed(in.ArtistOrOratorName),
		OrganizerName:      trimmed(in.OrganizerName),
		OrganizerWhatsapp:  trimmed(in.OrganizerWhatsapp),
		EventLink:          in.EventLink,
		BookingLink:        in.BookingLink,
		LocationLink:       trimmed(in.LocationLink),
		Address:            in.Address,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
	}
	if in.EventCategory != nil {
		p.EventCategory = []string(in.EventCategory)
	}

	start, end := e.StartDate, e.EndDate
	if in.StartDate != nil {
		t, ok := parseDate(*in.StartDate)
		if !ok {
			return p, invalid("Invalid date format", "startDate")
		}
		start, p.StartDate = t, &t
	}
	if in.EndDate != nil {
		t, ok := parseDate(*in.EndDate)
		if !ok {
			return p, invalid("Invalid date format", "endDate")
		}
		end, p.EndDate = t, &t
	}
	if start.After(end) {
		return p, invalid("End date must be after start date")
	}
	for name, v := range map[string]*string{"startTime": in.StartTime, "endTime": in.EndTime} {
		if v != nil && *v != "" && !clock.MatchString(*v) {
			return p, invalid("Time must be HH:MM", name)
		}
	}

	if p.LocationLink != nil {
		if lat, lng, ok := geo.FromLink(*p.LocationLink); ok {
			p.GeoCoordinates = models.NewGeoPoint(lat, lng)
		}
	}
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

/* -------------------- views -------------------- */

// EventView is an event as listed to a caller.
type EventView struct {
	models.Event
	Creator      *models.Creator `json:"creator,omitempty"`
	IsLiked      bool            `json:"isLiked"`
	DistanceInKm *float64        `json:"distanceInKm"`
}

type PageRequest struct {
	Page  int64
	Limit int64
}

func (p PageRequest) window(defLimit int64) (models.Page, int64, int64) {
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	return models.Page{Skip: (page - 1) * limit, Limit: limit}, page, limit
}

type Pagination struct {
	Page        int64 `json:"page"`
	Limit       int64 `json:"limit"`
	TotalEvents int64 `json:"totalEvents"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func paginate(page, limit, total int64) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Page:        page,
		Limit:       limit,
		TotalEvents: total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

type EventPage struct {
	Events     []EventView
	Pagination Pagination
}

// origin is the point distances are measured from.
type origin struct{ lat, lng float64 }

// eventPoint prefers the stored geo point and falls back to the maps link.
func eventPoint(e *models.Event) (float64, float64, bool) {
	if e.GeoCoordinates != nil {
		lat, lng := e.GeoCoordinates.LatLng()
		return lat, lng, true
	}
	return geo.FromLink(e.LocationLink)
}

func (o *origin) distance(e *models.Event) *float64 {
	if o == nil {
		return nil
	}
	lat, lng, ok := eventPoint(e)
	if !ok {
		return nil
	}
	d := geo.Round3(geo.DistanceKm(o.lat, o.lng, lat, lng))
	return &d
}

// viewerOrigin is the caller's stored location, if any.
func (s *EventService) viewerOrigin(ctx context.Context, viewer primitive.ObjectID) *origin {
	if viewer.IsZero() {
		return nil
	}
	u, err := s.store.Users.GetByID(ctx, viewer)
	if err != nil {
		return nil
	}
	lat, lng, ok := u.Point()
	if !ok {
		return nil
	}
	return &origin{lat, lng}
}

// annotate adds creator, isLiked and distance to each event.
func (s *EventService) annotate(ctx context.Context, viewer primitive.ObjectID, events []models.Event, from *origin) ([]EventView, error) {
	liked := map[primitive.ObjectID]bool{}
	if !viewer.IsZero() {
		ids, err := s.store.Likes.EventIDsByUser(ctx, viewer)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			liked[id] = true
		}
	}

	creators := map[primitive.ObjectID]*models.Creator{}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		c, ok := creators[e.User]
		if !ok {
			if u, err := s.store.Users.GetByID(ctx, e.User); err == nil {
				c = u.Creator()
			}
			creators[e.User] = c
		}
		out = append(out, EventView{
			Event:        e,
			Creator:      c,
			IsLiked:      liked[e.ID],
			DistanceInKm: from.distance(&e),
		})
	}
	return out, nil
}

func (s *EventService) page(ctx context.Context, viewer primitive.ObjectID, f models.EventFilter, req PageRequest, defLimit int64, from *origin) (EventPage, error) {
	win, page, limit := req.window(defLimit)
	events, total, err := s.store.Events.Find(ctx, f, win)
	if err != nil {
		return EventPage{}, fmt.Errorf("find events: %w", err)
	}
	views, err := s.annotate(ctx, viewer, events, from)
	if err != nil {
		return EventPage{}, err
	}
	return EventPage{Events: views, Pagination: paginate(page, limit, total)}, nil
}

/* -------------------- listings -------------------- */

type Listing int

const (
	ListUpcoming Listing = iota
	ListPast
	ListLatest
	ListLive
	ListApproved
	ListAll
)

func (l Listing) filter(now time.Time) models.EventFilter {
	yes := true
	switch l {
	case ListUpcoming:
		return models.EventFilter{Approved: &yes, StartFrom: now}
	case ListPast:
		return models.EventFilter{Approved: &yes, EndBefore: now, Sort: models.SortEndDesc}
	case ListLatest:
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return models.EventFilter{Approved: &yes, EndFrom: today, Sort: models.SortEndAsc}
	case ListLive:
		return models.EventFilter{Approved: &yes, StartUntil: now, EndAfter: now}
	case ListApproved:
		return models.EventFilter{Approved: &yes}
	default:
		return models.EventFilter{}
	}
}

func (l Listing) empty() string {
	switch l {
	case ListUpcoming:
		return "No upcoming events found"
	case ListPast:
		return "No past events found"
	case ListLatest:
		return "No latest events found"
	case ListLive:
		return "No live events found"
	default:
		return "No events found"
	}
}

// List returns one page of a listing, annotated for viewer (zero for
// anonymous callers). An empty page is a not-found.
func (s *EventService) List(ctx context.Context, viewer primitive.ObjectID, l Listing, req PageRequest) (EventPage, error) {
	out, err := s.page(ctx, viewer, l.filter(s.now()), req, 25, s.viewerOrigin(ctx, viewer))
	if err != nil {
		return EventPage{}, err
	}
	if len(out.Events) == 0 {
		return EventPage{}, notFound("%s", l.empty())
	}
	return out, nil
}

func (s *EventService) Pending(ctx context.Context) ([]models.Event, error) {
	no := false
	events, _, err := s.store.Events.Find(ctx, models.EventFilter{Approved: &no, Sort: models.SortCreatedDesc}, models.Page{})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, notFound("No events pending approval.")
	}
	return events, nil
}

// OwnedBy lists a user's events, optionally approved ones only.
func (s *EventService) OwnedBy(ctx context.Context, owner primitive.ObjectID, approvedOnly bool) ([]models.Event, error) {
	f := models.EventFilter{Owner: owner, Sort: models.SortCreatedDesc}
	if approvedOnly {
		yes := true
		f.Approved = &yes
	}
	events, _, err := s.store.Events.Find(ctx, f, models.Page{})
	return events, err
}

func (s *EventService) Get(ctx context.Context, viewer primitive.ObjectID, id string) (EventView, error) {
	eid, err := models.ParseID(id)
	if err != nil {
		return EventView{}, notFound("Invalid Event ID")
	}
	e, err := s.store.Events.GetByID(ctx, eid)
	if errors.Is(err, models.ErrNotFound) {
		return EventView{}, notFound("Invalid Event ID")
	}
	if err != nil {
		return EventView{}, err
	}
	views, err := s.annotate(ctx, viewer, []models.Event{e}, s.viewerOrigin(ctx, viewer))
	if err != nil {
		return EventView{}, err
	}
	return views[0], nil
}

/* -------------------- geo and search -------------------- */

type NearbyQuery struct {
	Lat, Lng float64
	// Km <= 0 means no radius.
	Km float64
	// UpcomingOnly drops events that already started.
	UpcomingOnly bool
}

// Nearby lists approved events nearest first.
func (s *EventService) Nearby(ctx context.Context, viewer primitive.ObjectID, q NearbyQuery, req PageRequest) (EventPage, error) {
	if q.Lat < -90 || q.Lat > 90 || q.Lng < -180 || q.Lng > 180 {
		return EventPage{}, invalid("Invalid coordinates provided. Please provide valid longitude and latitude.")
	}
	yes := true
	f := models.EventFilter{
		Approved: &yes,
		Near:     &models.GeoCircle{Lat: q.Lat, Lng: q.Lng, Km: q.Km},
		Sort:     models.SortNearest,
	}
	if q.UpcomingOnly {
		f.StartFrom = s.now()
	}
	out, err := s.page(ctx, viewer, f, req, 25, &origin{q.Lat, q.Lng})
	if err != nil {
		return EventPage{}, err
	}
	if len(out.Events) == 0 {
		return EventPage{}, notFound("No events found")
	}
	return out, nil
}

// SearchQuery fields are ORed together. Category, Artist and Organizer take
// comma-separated lists. Lat and Lng, when both set, add distances and order
// the page nearest first.
type SearchQuery struct {
	Name      string
	Address   string
	Category  string
	Artist    string
	Organizer string
	Language  string
	Date      string
	Lat, Lng  *float64
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *EventService) Search(ctx context.Context, viewer primitive.ObjectID, q SearchQuery, req PageRequest) (EventPage, error) {
	yes := true
	f := models.EventFilter{
		Approved:     &yes,
		StartFrom:    s.now(),
		NameLike:     strings.TrimSpace(q.Name),
		AddressLike:  strings.TrimSpace(q.Address),
		LanguageLike: strings.TrimSpace(q.Language),
		Categories:   splitList(q.Category),
		Artists:      splitList(q.Artist),
		Organizers:   splitList(q.Organizer),
		AnyText:      true,
	}
	if q.Date != "" {
		d, ok := parseDate(q.Date)
		if !ok {
			return EventPage{}, invalid("Invalid date format", "date")
		}
		f.OnDate = d
	}
	var from *origin
	if q.Lat != nil && q.Lng != nil {
		from = &origin{*q.Lat, *q.Lng}
	}

	out, err := s.page(ctx, viewer, f, req, 25, from)
	if err != nil {
		return EventPage{}, err
	}
	if len(out.Events) == 0 {
		return EventPage{}, notFound("No events found matching the criteria")
	}
	if from != nil {
		sortByDistance(out.Events)
	}
	return out, nil
}

// sortByDistance orders views nearest first; unknown distances go last.
func sortByDistance(views []EventView) {
	slices.SortStableFunc(views, func(a, b EventView) int {
		switch {
		case a.DistanceInKm == nil && b.DistanceInKm == nil:
			return 0
		case a.DistanceInKm == nil:
			return 1
		case b.DistanceInKm == nil:
			return -1
		}
		return cmp.Compare(*a.DistanceInKm, *b.DistanceInKm)
	})
}

func (s *EventService) Suggest(ctx context.Context, viewer primitive.ObjectID, name string, req PageRequest) (EventPage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return EventPage{}, invalid("The 'name' query parameter is required.")
	}
	yes := true
	return s.page(ctx, viewer, models.EventFilter{Approved: &yes, NameLike: name}, req, 10, nil)
}

// EventDistance is an approved event with its distance from the user.
type EventDistance struct {
	models.Event
	DistanceInKm float64 `json:"distanceInKm"`
}

// Distances measures every approved, located event from the user's stored
// coordinates.
func (s *EventService) Distances(ctx context.Context, userID string) ([]EventDistance, error) {
	uid, err := parseID(userID, "User")
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	lat, lng, ok := u.Point()
	if !ok {
		return nil, invalid("User location not found.")
	}

	yes := true
	events, _, err := s.store.Events.Find(ctx, models.EventFilter{Approved: &yes}, models.Page{})
	if err != nil {
		return nil, err
	}
	from := &origin{lat, lng}
	out := []EventDistance{}
	for _, e := range events {
		if d := from.distance(&e); d != nil {
			out = append(out, EventDistance{Event: e, DistanceInKm: *d})
		}
	}
	return out, nil
}

/* -------------------- writes -------------------- */

// Create uploads the posters and stores the event, linking it to the owner in
// the same transaction. New events await approval.
func (s *EventService) Create(ctx context.Context, owner primitive.ObjectID, in EventInput, posters []Upload) (models.Event, error) {
	const op = "services.EventService.Create"
	log := s.log.With(slog.String("op", op))

	if len(posters) == 0 {
		return models.Event{}, invalid("At least one event poster is required")
	}
	if err := in.requireNew(); err != nil {
		return models.Event{}, err
	}
	p, err := in.patch(models.Event{})
	if err != nil {
		return models.Event{}, err
	}
	if len(posters) > maxPosters {
		posters = posters[:maxPosters]
	}

	urls, err := uploadAll(ctx, s.images, log, PosterFolder, posters)
	if err != nil {
		return models.Event{}, fmt.Errorf("upload posters: %w", err)
	}
	p.EventPosters = urls

	var e models.Event
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.Users.GetByID(ctx, owner); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return notFound("User not found")
			}
			return err
		}
		e = models.Event{User: owner}
		p.Apply(&e)
		if err := s.store.Events.Create(ctx, &e); err != nil {
			return err
		}
		return s.store.Users.AddEvent(ctx, owner, e.ID)
	})
	if err != nil {
		removeAll(context.WithoutCancel(ctx), s.images, log, urls)
		return models.Event{}, err
	}
	log.Info("event created", slog.String("event", e.ID.Hex()), slog.String("owner", owner.Hex()))
	return e, nil
}

// Update edits an event. Only the owner may, unless asAdmin. New posters
// replace the old ones, which are then removed from the host.
func (s *EventService) Update(ctx context.Context, actor primitive.ObjectID, asAdmin bool, id string, in *EventInput, posters []Upload) (models.Event, error) {
	const op = "services.EventService.Update"
	log := s.log.With(slog.String("op", op))

	eid, err := parseID(id, "Event")
	if err != nil {
		return models.Event{}, err
	}
	e, err := s.store.Events.GetByID(ctx, eid)
	if errors.Is(err, models.ErrNotFound) {
		return models.Event{}, notFound("Event not found")
	}
	if err != nil {
		return models.Event{}, err
	}
	if !asAdmin && e.User != actor {
		return models.Event{}, &ForbiddenError{Msg: "You don't have permission to update this event"}
	}
	if in == nil && len(posters) == 0 {
		return models.Event{}, invalid("No update fields provided")
	}
	if in == nil {
		in = &EventInput{}
	}
	p, err := in.patch(e)
	if err != nil {
		return models.Event{}, err
	}
	if len(posters) > maxPosters {
		posters = posters[:maxPosters]
	}
	if len(posters) > 0 {
		urls, err := uploadAll(ctx, s.images, log, PosterFolder, posters)
		if err != nil {
			return models.Event{}, fmt.Errorf("upload posters: %w", err)
		}
		p.EventPosters = urls
	}

	updated, err := s.store.Events.Update(ctx, eid, p)
	if err != nil {
		removeAll(context.WithoutCancel(ctx), s.images, log, p.EventPosters)
		return models.Event{}, err
	}
	if p.EventPosters != nil {
		removeAll(ctx, s.images, log, e.EventPosters)
	}
	return updated, nil
}

func (s *EventService) setApproved(ctx context.Context, id string, approved bool) (models.Event, error) {
	eid, err := parseID(id, "Event")
	if err != nil {
		return models.Event{}, err
	}
	e, err := s.store.Events.SetApproved(ctx, eid, approved)
	if errors.Is(err, models.ErrNotFound) {
		return models.Event{}, notFound("Event not found")
	}
	return e, err
}

func (s *EventService) Approve(ctx context.Context, id string) (models.Event, error) {
	return s.setApproved(ctx, id, true)
}

func (s *EventService) Reject(ctx context.Context, id string) (models.Event, error) {
	return s.setApproved(ctx, id, false)
}

// Delete removes an event with everything hanging off it, then its posters.
func (s *EventService) Delete(ctx context.Context, actor primitive.ObjectID, asAdmin bool, id string) error {
	const op = "services.EventService.Delete"
	log := s.log.With(slog.String("op", op))

	eid, err := parseID(id, "Event")
	if err != nil {
		return err
	}
	e, err := s.store.Events.GetByID(ctx, eid)
	if errors.Is(err, models.ErrNotFound) {
		return notFound("Event not found")
	}
	if err != nil {
		return err
	}
	if !asAdmin && e.User != actor {
		return &ForbiddenError{Msg: "You don't have permission to delete this event"}
	}
	if err := s.store.Integrity.DeleteEvent(ctx, eid); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound("Event not found")
		}
		return err
	}
	removeAll(ctx, s.images, log, e.EventPosters)
	log.Info("event deleted", slog.String("event", eid.Hex()))
	return nil
}

/* -------------------- insight -------------------- */

type InsightBooking struct {
	ID            primitive.ObjectID `json:"_id"`
	User          primitive.ObjectID `json:"user"`
	UserName      string             `json:"userName"`
	Email         string             `json:"email"`
	PhoneNumber   string             `json:"phoneNumber"`
	TicketID      *string            `json:"ticketId"`
	NoOfAttendees int                `json:"noOfAttendees"`
	TicketDate    time.Time          `json:"ticketDate"`
	AmountPaid    string             `json:"amountPaid"`
}

type Insight struct {
	TotalBookings  int              `json:"totalBookings"`
	TotalAttendees int              `json:"totalAttendees"`
	LikeCount      int              `json:"likeCount"`
	Revenue        float64          `json:"revenue"`
	WeeklyStats    []int            `json:"weeklyStats"`
	MonthlyStats   []int            `json:"monthlyStats"`
	Bookings       []InsightBooking `json:"bookings"`
}

// Insight summarises an event's bookings for its owner. WeeklyStats counts
// bookings per weekday since Sunday, MonthlyStats per day of this month.
func (s *EventService) Insight(ctx context.Context, actor primitive.ObjectID, id string) (Insight, error) {
	eid, err := models.ParseID(id)
	if err != nil {
		return Insight{}, invalid("Invalid event or user ID format")
	}
	e, err := s.store.Events.GetByID(ctx, eid)
	if errors.Is(err, models.ErrNotFound) {
		return Insight{}, notFound("Event not found")
	}
	if err != nil {
		return Insight{}, err
	}
	if e.User != actor {
		return Insight{}, &ForbiddenError{Msg: "Unauthorized to access this event"}
	}
	bookings, err := s.store.Bookings.ByEvent(ctx, eid)
	if err != nil {
		return Insight{}, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := today.AddDate(0, 0, 1-today.Day())
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()

	out := Insight{
		TotalBookings: len(bookings),
		LikeCount:     e.LikeCount,
		WeeklyStats:   make([]int, 7),
		MonthlyStats:  make([]int, daysInMonth),
		Bookings:      make([]InsightBooking, 0, len(bookings)),
	}

	users := map[primitive.ObjectID]models.User{}
	for _, b := range bookings {
		if _, ok := users[b.User]; ok {
			continue
		}
		u, err := s.store.Users.GetByID(ctx, b.User)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return Insight{}, err
		}
		users[b.User] = u
	}

	for _, b := range bookings {
		out.TotalAttendees += b.NoOfAttendee
		if v, err := strconv.ParseFloat(b.AmountPaid, 64); err == nil {
			out.Revenue += v
		}
		at := b.CreatedAt.In(now.Location())
		if !at.Before(weekStart) {
			out.WeeklyStats[int(at.Weekday())]++
		}
		if !at.Before(monthStart) && at.Month() == monthStart.Month() {
			out.MonthlyStats[at.Day()-1]++
		}
		u := users[b.User]
		out.Bookings = append(out.Bookings, InsightBooking{
			ID:            b.ID,
			User:          b.User,
			UserName:      u.Name,
			Email:         u.Email,
			PhoneNumber:   u.PhoneNumber,
			TicketID:      b.PaymentID,
			NoOfAttendees: b.NoOfAttendee,
			TicketDate:    b.CreatedAt,
			AmountPaid:    b.AmountPaid,
		})
	}
	return out, nil
}
