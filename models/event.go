package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AgendaItem struct {
	SubEvent    int    `bson:"subEvent" json:"subEvent" binding:"min=1"`
	Title       string `bson:"title" json:"title" binding:"required"`
	Description string `bson:"description" json:"description" binding:"required"`
}

type EventAddress struct {
	Address    string  `bson:"address" json:"address" binding:"required"`
	Address2   *string `bson:"address2" json:"address2"`
	Landmark   *string `bson:"landmark" json:"landmark"`
	City       string  `bson:"city" json:"city" binding:"required"`
	State      string  `bson:"state" json:"state" binding:"required"`
	PostalCode string  `bson:"postalCode" json:"postalCode" binding:"required"`
	Country    string  `bson:"country" json:"country" binding:"required"`
}

// GeoPoint is a GeoJSON point; Coordinates is [lng, lat].
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p *GeoPoint) LatLng() (float64, float64) { return p.Coordinates[1], p.Coordinates[0] }

// Event is a schedulable item. CurrentNoOfAttendees, LikeCount and Bookings
// are maintained by the booking flow and by Integrity only.
type Event struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	IsPrivate            bool                 `bson:"isPrivate" json:"isPrivate"`
	EventName            string               `bson:"eventName" json:"eventName"`
	EventCategory        []string             `bson:"eventCategory" json:"eventCategory"`
	EventPosters         []string             `bson:"eventPosters" json:"eventPosters"`
	EventDesc            string               `bson:"eventDesc" json:"eventDesc"`
	EventPrice           string               `bson:"eventPrice" json:"eventPrice"`
	EventLang            string               `bson:"eventLang" json:"eventLang"`
	NoOfAttendees        string               `bson:"noOfAttendees" json:"noOfAttendees"`
	MaxAttendees         *int                 `bson:"maxAttendees" json:"maxAttendees"`
	CurrentNoOfAttendees int                  `bson:"currentNoOfAttendees" json:"currentNoOfAttendees"`
	EventAgenda          []AgendaItem         `bson:"eventAgenda" json:"eventAgenda"`
	ArtistOrOratorName   string               `bson:"artistOrOratorName" json:"artistOrOratorName"`
	OrganizerName        string               `bson:"organizerName" json:"organizerName"`
	OrganizerWhatsapp    string               `bson:"organizerWhatsapp" json:"organizerWhatsapp"`
	EventLink            string               `bson:"eventLink,omitempty" json:"eventLink,omitempty"`
	BookingLink          string               `bson:"bookingLink,omitempty" json:"bookingLink,omitempty"`
	LocationLink         string               `bson:"locationLink" json:"locationLink"`
	Address              EventAddress         `bson:"address" json:"address"`
	GeoCoordinates       *GeoPoint            `bson:"geoCoordinates,omitempty" json:"geoCoordinates,omitempty"`
	StartDate            time.Time            `bson:"startDate" json:"startDate"`
	EndDate              time.Time            `bson:"endDate" json:"endDate"`
	StartTime            string               `bson:"startTime" json:"startTime"`
	EndTime              string               `bson:"endTime" json:"endTime"`
	Approved             bool                 `bson:"approved" json:"approved"`
	ApprovedAt           *time.Time           `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	Bookings             []primitive.ObjectID `bson:"bookings" json:"bookings"`
	LikeCount            int                  `bson:"likeCount" json:"likeCount"`
	User                 primitive.ObjectID   `bson:"user" json:"user"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// SeatsLeft reports remaining capacity; ok is false for unbounded events.
func (e *Event) SeatsLeft() (left int, ok bool) {
	if e.MaxAttendees == nil {
		return 0, false
	}
	return *e.MaxAttendees - e.CurrentNoOfAttendees, true
}

// HasRoomFor is the capacity rule shared by the pre-check and the
// conditional write.
func (e *Event) HasRoomFor(n int) bool {
	left, bounded := e.SeatsLeft()
	return !bounded || left >= n
}

// EventPatch carries the owner-editable fields; nil means unchanged.
type EventPatch struct {
	IsPrivate          *bool
	EventName          *string
	EventCategory      []string
	EventPosters       []string
	EventDesc          *string
	EventPrice         *string
	EventLang          *string
	NoOfAttendees      *string
	MaxAttendees       *Capacity
	EventAgenda        []AgendaItem
	ArtistOrOratorName *string
	OrganizerName      *string
	OrganizerWhatsapp  *string
	EventLink          *string
	BookingLink        *string
	LocationLink       *string
	Address            *EventAddress
	GeoCoordinates     *GeoPoint
	StartDate          *time.Time
	EndDate            *time.Time
	StartTime          *string
	EndTime            *string
}

// Apply copies the set fields onto e.
func (p EventPatch) Apply(e *Event) {
	setIf(&e.IsPrivate, p.IsPrivate)
	setIf(&e.EventName, p.EventName)
	if p.EventCategory != nil {
		e.EventCategory = p.EventCategory
	}
	if p.EventPosters != nil {
		e.EventPosters = p.EventPosters
	}
	setIf(&e.EventDesc, p.EventDesc)
	setIf(&e.EventPrice, p.EventPrice)
	setIf(&e.EventLang, p.EventLang)
	setIf(&e.NoOfAttendees, p.NoOfAttendees)
	if p.MaxAttendees != nil {
		e.MaxAttendees = p.MaxAttendees.Limit
	}
	if p.EventAgenda != nil {
		e.EventAgenda = p.EventAgenda
	}
	setIf(&e.ArtistOrOratorName, p.ArtistOrOratorName)
	setIf(&e.OrganizerName, p.OrganizerName)
	setIf(&e.OrganizerWhatsapp, p.OrganizerWhatsapp)
	setIf(&e.EventLink, p.EventLink)
	setIf(&e.BookingLink, p.BookingLink)
	setIf(&e.LocationLink, p.LocationLink)
	setIf(&e.Address, p.Address)
	if p.GeoCoordinates != nil {
		e.GeoCoordinates = p.GeoCoordinates
	}
	setIf(&e.StartDate, p.StartDate)
	setIf(&e.EndDate, p.EndDate)
	setIf(&e.StartTime, p.StartTime)
	setIf(&e.EndTime, p.EndTime)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// EventFilter selects events for listing. Zero fields do not filter.
type EventFilter struct {
	Approved     *bool
	Owner        primitive.ObjectID
	StartFrom    time.Time // startDate >= StartFrom
	StartUntil   time.Time // startDate <= StartUntil
	EndFrom      time.Time // endDate >= EndFrom
	EndAfter     time.Time // endDate > EndAfter
	EndBefore    time.Time // endDate < EndBefore
	NameLike     string
	AddressLike  string
	LanguageLike string
	// Categories, Artists and Organizers match when any term is a
	// case-insensitive substring.
	Categories []string
	Artists    []string
	Organizers []string
	// OnDate matches events starting on that UTC day.
	OnDate time.Time
	Near   *GeoCircle
	// AnyText switches the text conditions above (NameLike through OnDate)
	// from AND to OR.
	AnyText bool
	Sort    EventSort
}

// GeoCircle limits results to Km around a point. Km <= 0 means no radius,
// which only makes sense with SortNearest.
type GeoCircle struct {
	Lat, Lng, Km float64
}

type EventSort int

const (
	SortStartAsc EventSort = iota
	SortEndAsc
	SortEndDesc
	SortCreatedDesc
	// SortNearest orders by distance from Near; it needs Near set.
	SortNearest
)

// Page is an offset window; Limit 0 means no limit.
type Page struct {
	Skip  int64
	Limit int64
}
