// Package apperr classifies failures so the REPL can decide whether a turn
// aborts, and so storage and transport problems stay distinguishable.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names one class of failure.
type Kind string

const (
	KindConfig     Kind = "config"
	KindStorage    Kind = "storage"
	KindTransport  Kind = "transport"
	KindFrameParse Kind = "frame_parse"
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New builds a classified error.
func New(kind Kind, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func Config(message string) error {
	return New(KindConfig, message, nil)
}

func Storage(message string, cause error) error {
	return New(KindStorage, message, cause)
}

func Transport(message string, cause error) error {
	return New(KindTransport, message, cause)
}

func FrameParse(message string, cause error) error {
	return New(KindFrameParse, message, cause)
}

// KindOf returns the kind of the first classified error in the chain, or ""
// when err is unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsConfig(err error) bool     { return KindOf(err) == KindConfig }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }
func IsTransport(err error) bool  { return KindOf(err) == KindTransport }
func IsFrameParse(err error) bool { return KindOf(err) == KindFrameParse }
