package environment

import (
	"time"

	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

// Alias is a stable pointer, such as "production", to one environment.
type Alias struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	EnvironmentID string     `json:"environment"`
	CreatedOn     time.Time  `json:"createdOn"`
	CreatedBy     tenant.Ref `json:"createdBy"`
	ChangedOn     *time.Time `json:"changedOn,omitempty"`
}

// CreateAliasRequest holds the fields accepted when creating an alias.
type CreateAliasRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment"`
}

// UpdateAliasRequest holds the mutable alias fields.
type UpdateAliasRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Environment *string `json:"environment,omitempty"`
}

// AliasChanges is the dirty subset of an alias update.
type AliasChanges struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	EnvironmentID *string    `json:"environment,omitempty"`
	ChangedOn     *time.Time `json:"changedOn,omitempty"`
}

// IsEmpty reports whether no field changed.
func (c AliasChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.EnvironmentID == nil
}

// Apply returns a copy of a with the changes merged in.
func (c AliasChanges) Apply(a Alias) Alias {
	if c.Name != nil {
		a.Name = *c.Name
	}
	if c.Description != nil {
		a.Description = *c.Description
	}
	if c.EnvironmentID != nil {
		a.EnvironmentID = *c.EnvironmentID
	}
	if c.ChangedOn != nil {
		t := *c.ChangedOn
		a.ChangedOn = &t
	}
	return a
}

// DiffAlias computes the dirty fields of req relative to the current alias.
func DiffAlias(current *Alias, req UpdateAliasRequest) AliasChanges {
	var c AliasChanges
	if req.Name != nil && *req.Name != current.Name {
		v := *req.Name
		c.Name = &v
	}
	if req.Description != nil && *req.Description != current.Description {
		v := *req.Description
		c.Description = &v
	}
	if req.Environment != nil && *req.Environment != current.EnvironmentID {
		v := *req.Environment
		c.EnvironmentID = &v
	}
	return c
}

// AliasNames returns the names of the aliases that target environmentID.
func AliasNames(aliases []Alias, environmentID string) []string {
	var names []string
	for i := range aliases {
		if aliases[i].EnvironmentID == environmentID {
			names = append(names, aliases[i].Name)
		}
	}
	return names
}
