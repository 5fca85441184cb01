package spectra

import (
	"errors"

	"github.com/goliatone/go-spectra/pkg/assignment"
)

// ConditionKind names a user-facing situation reported on a state.
type ConditionKind string

const (
	ConditionAlreadyAssigned ConditionKind = "ALREADY_ASSIGNED"
	// ConditionLinksSkipped marks a load that was applied while some of its
	// bundled links conflicted with existing ones and were dropped.
	ConditionLinksSkipped ConditionKind = "LINKS_SKIPPED"
)

// Condition is a legitimate user situation returned on the resulting state
// for the caller to render, e.g. an atom that is linked elsewhere.
type Condition struct {
	Kind    ConditionKind   `json:"kind"`
	Message string          `json:"message"`
	Atoms   []string        `json:"atoms,omitempty"`
	Feature *assignment.Ref `json:"feature,omitempty"`
	err     error
}

// Err returns the error the condition was built from.
func (c *Condition) Err() error {
	if c == nil {
		return nil
	}
	return c.err
}

// Declined reports whether the transition was refused and left the data
// untouched. Declined states are never recorded in history.
func (c *Condition) Declined() bool {
	return c != nil && c.Kind == ConditionAlreadyAssigned
}

func conditionFromError(err error) *Condition {
	var conflict *assignment.ConflictError
	if !errors.As(err, &conflict) {
		return nil
	}
	feature := conflict.Requested
	return &Condition{
		Kind:    ConditionAlreadyAssigned,
		Message: err.Error(),
		Atoms:   conflict.Atoms(),
		Feature: &feature,
		err:     err,
	}
}
