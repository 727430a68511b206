package models

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/geo"
)

// matches evaluates f in process; the Mongo backend translates the same
// filter into a query document instead.
func (f EventFilter) matches(e *Event) bool {
	if f.Approved != nil && e.Approved != *f.Approved {
		return false
	}
	if !f.Owner.IsZero() && e.User != f.Owner {
		return false
	}
	if !f.StartFrom.IsZero() && e.StartDate.Before(f.StartFrom) {
		return false
	}
	if !f.StartUntil.IsZero() && e.StartDate.After(f.StartUntil) {
		return false
	}
	if !f.EndFrom.IsZero() && e.EndDate.Before(f.EndFrom) {
		return false
	}
	if !f.EndAfter.IsZero() && !e.EndDate.After(f.EndAfter) {
		return false
	}
	if !f.EndBefore.IsZero() && !e.EndDate.Before(f.EndBefore) {
		return false
	}
	if f.Near != nil {
		if e.GeoCoordinates == nil {
			return false
		}
		if f.Near.Km > 0 && f.Near.distanceTo(e) > f.Near.Km {
			return false
		}
	}
	return f.matchesText(e)
}

func (f EventFilter) matchesText(e *Event) bool {
	var results []bool
	like := func(term string, fields ...string) {
		if term == "" {
			return
		}
		results = append(results, slices.ContainsFunc(fields, func(s string) bool { return containsFold(s, term) }))
	}
	anyOf := func(terms []string, fields ...string) {
		if len(terms) == 0 {
			return
		}
		results = append(results, slices.ContainsFunc(terms, func(t string) bool {
			return slices.ContainsFunc(fields, func(s string) bool { return containsFold(s, t) })
		}))
	}
	like(f.NameLike, e.EventName)
	like(f.AddressLike, e.Address.Address, e.Address.City)
	like(f.LanguageLike, e.EventLang)
	anyOf(f.Categories, e.EventCategory...)
	anyOf(f.Artists, e.ArtistOrOratorName)
	anyOf(f.Organizers, e.OrganizerName)
	if !f.OnDate.IsZero() {
		day := f.OnDate.UTC().Truncate(24 * time.Hour)
		results = append(results, !e.StartDate.Before(day) && e.StartDate.Before(day.Add(24*time.Hour)))
	}

	if len(results) == 0 {
		return true
	}
	if f.AnyText {
		return slices.Contains(results, true)
	}
	return !slices.Contains(results, false)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (c *GeoCircle) distanceTo(e *Event) float64 {
	lat, lng := e.GeoCoordinates.LatLng()
	return geo.DistanceKm(c.Lat, c.Lng, lat, lng)
}

func (f EventFilter) compare(a, b *Event) int {
	switch f.Sort {
	case SortNearest:
		if f.Near == nil || a.GeoCoordinates == nil || b.GeoCoordinates == nil {
			return 0
		}
		return cmp.Compare(f.Near.distanceTo(a), f.Near.distanceTo(b))
	case SortEndAsc:
		return a.EndDate.Compare(b.EndDate)
	case SortEndDesc:
		return b.EndDate.Compare(a.EndDate)
	case SortCreatedDesc:
		return b.CreatedAt.Compare(a.CreatedAt)
	default:
		return a.StartDate.Compare(b.StartDate)
	}
}

func window[T any](items []T, p Page) []T {
	if p.Skip >= int64(len(items)) {
		return []T{}
	}
	items = items[max(p.Skip, 0):]
	if p.Limit > 0 && p.Limit < int64(len(items)) {
		items = items[:p.Limit]
	}
	return items
}

func byObjectID[T any](id func(T) primitive.ObjectID) func(a, b T) int {
	return func(a, b T) int {
		x, y := id(a), id(b)
		return bytes.Compare(x[:], y[:])
	}
}
