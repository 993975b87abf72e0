// Package environment defines environments, the named content snapshots of a
// tenant, and the aliases that point at them.
package environment

import (
	"time"

	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

// Status records whether an environment's content has been copied from its source.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReady      Status = "ready"
	StatusCopyFailed Status = "copy_failed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReady, StatusCopyFailed:
		return true
	}
	return false
}

// Environment is a named, versioned snapshot of content configuration and data.
type Environment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	// CreatedFrom is the full source record at creation time. It is nil only
	// for the initial environment of a tenant.
	CreatedFrom *Environment `json:"createdFrom,omitempty"`
	CreatedOn   time.Time    `json:"createdOn"`
	CreatedBy   tenant.Ref   `json:"createdBy"`
	ChangedOn   *time.Time   `json:"changedOn,omitempty"`
	Status      Status       `json:"status"`
}

// CreatedFromID returns the id of the source environment, or "" for an initial one.
func (e *Environment) CreatedFromID() string {
	if e == nil || e.CreatedFrom == nil {
		return ""
	}
	return e.CreatedFrom.ID
}

// CreateRequest holds the fields accepted when creating an environment.
type CreateRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedFrom string `json:"createdFrom,omitempty"`
}

// UpdateRequest holds the fields that can be changed after creation. Slug and
// createdFrom are immutable and have no place here.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Changes is the partial environment produced by an update: only the fields
// that actually differ from the stored record, plus the refreshed changedOn.
type Changes struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	ChangedOn   *time.Time `json:"changedOn,omitempty"`
}

// IsEmpty reports whether no field changed.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Description == nil
}

// Apply returns a copy of e with the changes merged in.
func (c Changes) Apply(e Environment) Environment {
	if c.Name != nil {
		e.Name = *c.Name
	}
	if c.Description != nil {
		e.Description = *c.Description
	}
	if c.ChangedOn != nil {
		t := *c.ChangedOn
		e.ChangedOn = &t
	}
	return e
}

// Diff computes the dirty fields of req relative to the current record.
// A field counts as dirty only when it is present and holds a different value.
func Diff(current *Environment, req UpdateRequest) Changes {
	var c Changes
	if req.Name != nil && *req.Name != current.Name {
		name := *req.Name
		c.Name = &name
	}
	if req.Description != nil && *req.Description != current.Description {
		desc := *req.Description
		c.Description = &desc
	}
	return c
}
