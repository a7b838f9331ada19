package handler

import (
	"errors"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Result is the outcome of one fire or resolve call.
type Result struct {
	DispatchID string
	Method     Method
	Status     models.IncidentStatus
	Targets    []Target
	Delivered  []Target
	Failures   []*DeliveryError
}

// Err joins every per-target delivery failure, or returns nil when all succeeded.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Partial reports whether some but not all targets were delivered.
func (r *Result) Partial() bool {
	return len(r.Delivered) > 0 && len(r.Failures) > 0
}
