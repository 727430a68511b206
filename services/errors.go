package services

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnavailable      = errors.New("service not configured")
	ErrNotApproved      = errors.New("This event is not approved yet. Please wait for event approval.")
	ErrSelfSubscription = errors.New("You cannot subscribe to yourself")
	ErrOTPMissing       = errors.New("No OTP request found")
	ErrOTPInvalid       = errors.New("Invalid OTP")
	ErrOTPExpired       = errors.New("OTP expired")
)

// NotFoundError names what was missing. It matches ErrNotFound.
type NotFoundError struct{ Msg string }

func (e *NotFoundError) Error() string        { return e.Msg }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError is a uniqueness clash the client can fix (email taken,
// duplicate like). It matches ErrConflict.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string        { return e.Msg }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ForbiddenError matches ErrForbidden.
type ForbiddenError struct{ Msg string }

func (e *ForbiddenError) Error() string        { return e.Msg }
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// AuthError matches ErrUnauthorized.
type AuthError struct{ Msg string }

func (e *AuthError) Error() string        { return e.Msg }
func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// ValidationError rejects input before anything is written. Unprocessable
// marks well-formed requests whose content is wrong.
type ValidationError struct {
	Msg           string
	Fields        []string
	Unprocessable bool
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Fields, ", ")
}

func invalid(msg string, fields ...string) error {
	return &ValidationError{Msg: msg, Fields: fields}
}

func unprocessable(msg string, fields ...string) error {
	return &ValidationError{Msg: msg, Fields: fields, Unprocessable: true}
}

// CapacityError carries the event's limit and current count for display.
type CapacityError struct {
	Max     int
	Current int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Event capacity exceeded. Maximum: %d, Current: %d", e.Max, e.Current)
}

// DeliveryError means the booking committed but the ticket could not be
// delivered. Booking is the committed record.
type DeliveryError struct {
	Booking models.Booking
	Err     error
}

func (e *DeliveryError) Error() string { return "ticket delivery failed: " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

// parseID turns a malformed hex id into a not-found for what.
func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := models.ParseID(hex)
	if err != nil {
		return id, notFound("%s not found", what)
	}
	return id, nil
}
