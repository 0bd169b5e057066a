package pipeline

import (
	"errors"
	"fmt"
)

// Common pipeline errors
var (
	// ErrMissingField rejects a record lacking a required field
	ErrMissingField = errors.New("missing required field")
	// ErrSkip drops a record that is not a program (navigation links, brochures)
	ErrSkip = errors.New("not a program")
)

// Kind classifies a fault
type Kind string

const (
	KindTransport     Kind = "TRANSPORT"
	KindExtraction    Kind = "EXTRACTION"
	KindNormalization Kind = "NORMALIZATION"
	KindPersistence   Kind = "PERSISTENCE"
	KindFatal         Kind = "FATAL"
)

// Fault is one problem met during a run. Every kind except KindFatal is
// absorbed into the report and the run continues.
type Fault struct {
	Kind       Kind
	Page       int
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Underlying != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Underlying)
	}
	return f.Message
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Underlying
}

// Is matches another *Fault by kind, otherwise the underlying error
func (f *Fault) Is(target error) bool {
	if t, ok := target.(*Fault); ok {
		return f.Kind == t.Kind
	}
	return errors.Is(f.Underlying, target)
}

// NewFault creates a Fault
func NewFault(kind Kind, page int, message string, err error) *Fault {
	return &Fault{
		Kind:       kind,
		Page:       page,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the fault
func (f *Fault) WithDetail(key string, value interface{}) *Fault {
	f.Details[key] = value
	return f
}

// Missing returns ErrMissingField naming the absent fields
func Missing(fields ...string) error {
	return fmt.Errorf("%w: %v", ErrMissingField, fields)
}
