package model

import (
	"fmt"

	"github.com/mandelsoft/concepts/pkg/metamodel"
)

// ErrTypeNotFound is reported by type resolution for names not
// known to the model manager.
var ErrTypeNotFound = fmt.Errorf("type not found")

// ErrFrozen is reported for modification attempts on a model
// manager after successful validation.
var ErrFrozen = fmt.Errorf("model manager is validated and frozen")

// IllegalModelError reports a structural fault of a model set
// detected during assembly or validation.
type IllegalModelError struct {
	Namespace   string
	Declaration string
	Property    string
	Location    *metamodel.Location
	Message     string
}

func (e *IllegalModelError) Error() string {
	msg := fmt.Sprintf("namespace %q", e.Namespace)
	if e.Declaration != "" {
		msg += fmt.Sprintf(": declaration %q", e.Declaration)
	}
	if e.Property != "" {
		msg += fmt.Sprintf(": property %q", e.Property)
	}
	if e.Location != nil {
		msg += fmt.Sprintf(" (%s)", e.Location)
	}
	return msg + ": " + e.Message
}

func illegal(ns, decl, prop string, loc *metamodel.Location, msg string, args ...interface{}) error {
	return &IllegalModelError{
		Namespace:   ns,
		Declaration: decl,
		Property:    prop,
		Location:    loc,
		Message:     fmt.Sprintf(msg, args...),
	}
}

// ImportResolutionError reports the failed fetch of an external
// model for an imported namespace. A failed import is retryable and
// does not affect already loaded model files.
type ImportResolutionError struct {
	Namespace string
	URI       string
	Err       error
}

func (e *ImportResolutionError) Error() string {
	return fmt.Sprintf("resolving import %q (%s): %s", e.Namespace, e.URI, e.Err)
}

func (e *ImportResolutionError) Unwrap() error {
	return e.Err
}
