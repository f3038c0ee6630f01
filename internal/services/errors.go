package services

import (
	"errors"
	"fmt"
)

type ValidationKind string

const (
	MissingStatus         ValidationKind = "missing_status"
	MissingAppointment    ValidationKind = "missing_appointment"
	UnknownStatus         ValidationKind = "unknown_status"
	IllegalTransition     ValidationKind = "illegal_transition"
	MissingField          ValidationKind = "missing_field"
	InsufficientDocuments ValidationKind = "insufficient_documents"
	NoChange              ValidationKind = "no_change"
)

// ValidationError rejects a transition before anything is written.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

type AssignmentKind string

const (
	AlreadyClaimed     AssignmentKind = "already_claimed"
	Unauthorized       AssignmentKind = "unauthorized"
	IneligibleAssignee AssignmentKind = "ineligible_assignee"
)

type AssignmentError struct {
	Kind AssignmentKind
	Msg  string
}

func (e *AssignmentError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

type ConversionKind string

const (
	WrongStatus   ConversionKind = "wrong_status"
	MissingLeadID ConversionKind = "missing_lead_id"
)

type ConversionError struct {
	Kind ConversionKind
}

func (e *ConversionError) Error() string {
	return string(e.Kind)
}

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// ValidationKindOf returns the kind of a wrapped ValidationError, if any.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}

func AssignmentKindOf(err error) (AssignmentKind, bool) {
	var ae *AssignmentError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func ConversionKindOf(err error) (ConversionKind, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
