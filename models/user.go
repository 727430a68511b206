package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UserTypeHostAndParticipant = "Host&Participant"
	UserTypeParticipant        = "Participant"
)

const (
	ProfileTypeArtist    = "Artist"
	ProfileTypeOrator    = "Orator"
	ProfileTypeOrganizer = "Organizer"
)

func ValidUserType(t string) bool {
	return t == UserTypeHostAndParticipant || t == UserTypeParticipant
}

func ValidProfileType(t string) bool {
	switch t {
	case ProfileTypeArtist, ProfileTypeOrator, ProfileTypeOrganizer:
		return true
	}
	return false
}

type Coordinates struct {
	Lat string `bson:"lat" json:"lat"`
	Lng string `bson:"lng" json:"lng"`
}

type UserLocation struct {
	Address     string       `bson:"address" json:"address"`
	Address2    *string      `bson:"address2,omitempty" json:"address2"`
	City        string       `bson:"city" json:"city"`
	State       string       `bson:"state" json:"state"`
	PostalCode  string       `bson:"postalCode" json:"postalCode"`
	Country     string       `bson:"country" json:"country"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// User is an account. Bookings and Events are derived lists; the owning
// foreign keys on Booking and Event are the source of truth.
type User struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name                string               `bson:"name" json:"name"`
	Email               string               `bson:"email" json:"email"`
	ProfileView         int                  `bson:"profileView" json:"profileView"`
	PhoneNumber         string               `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Password            string               `bson:"password,omitempty" json:"-"`
	UserType            string               `bson:"userType" json:"userType"`
	ProfileType         string               `bson:"profileType,omitempty" json:"profileType,omitempty"`
	Desc                *string              `bson:"desc" json:"desc"`
	Location            *UserLocation        `bson:"location,omitempty" json:"location,omitempty"`
	Interests           []string             `bson:"interests" json:"interests"`
	PreferredEventTypes []string             `bson:"preferredEventTypes" json:"preferredEventTypes"`
	Profile             *string              `bson:"profile" json:"profile"`
	Document            []string             `bson:"document" json:"document"`
	Social              SocialLinks          `bson:"social" json:"social"`
	Bookings            []primitive.ObjectID `bson:"bookings" json:"bookings"`
	Events              []primitive.ObjectID `bson:"events" json:"events"`
	FCMToken            []string             `bson:"fcmToken" json:"fcmToken"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
}

// LatestDeviceToken is the most recently registered push token, or "".
func (u *User) LatestDeviceToken() string {
	if len(u.FCMToken) == 0 {
		return ""
	}
	return u.FCMToken[len(u.FCMToken)-1]
}

// Point returns the user's stored coordinates if both parse.
func (u *User) Point() (lat, lng float64, ok bool) {
	if u.Location == nil || u.Location.Coordinates == nil {
		return 0, 0, false
	}
	return ParseLatLng(u.Location.Coordinates.Lat, u.Location.Coordinates.Lng)
}

// Creator is the public summary embedded in event responses.
type Creator struct {
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Profile *string            `json:"profile"`
}

func (u *User) Creator() *Creator {
	return &Creator{ID: u.ID, Name: u.Name, Email: u.Email, Profile: u.Profile}
}

// UserPatch carries editable profile fields; nil means unchanged.
type UserPatch struct {
	Name                *string
	Email               *string
	PhoneNumber         *string
	UserType            *string
	ProfileType         *string
	Desc                *string
	Location            *UserLocation
	Coordinates         *Coordinates
	Interests           []string
	PreferredEventTypes []string
	Social              *SocialLinks
	Profile             *string
	Document            []string
}

func (p UserPatch) apply(u *User) {
	setIf(&u.Name, p.Name)
	setIf(&u.Email, p.Email)
	setIf(&u.PhoneNumber, p.PhoneNumber)
	setIf(&u.UserType, p.UserType)
	setIf(&u.ProfileType, p.ProfileType)
	if p.Desc != nil {
		u.Desc = p.Desc
	}
	if p.Location != nil {
		loc := *p.Location
		if loc.Coordinates == nil && u.Location != nil {
			loc.Coordinates = u.Location.Coordinates
		}
		u.Location = &loc
	}
	if p.Coordinates != nil {
		loc := UserLocation{}
		if u.Location != nil {
			loc = *u.Location
		}
		c := *p.Coordinates
		loc.Coordinates = &c
		u.Location = &loc
	}
	if p.Interests != nil {
		u.Interests = p.Interests
	}
	if p.PreferredEventTypes != nil {
		u.PreferredEventTypes = p.PreferredEventTypes
	}
	setIf(&u.Social, p.Social)
	if p.Profile != nil {
		u.Profile = p.Profile
	}
	if p.Document != nil {
		u.Document = p.Document
	}
}
