package environment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/Strob0t/ContentForge/internal/domain"
)

const (
	MaxNameLength        = 100
	MaxSlugLength        = 100
	MaxDescriptionLength = 255
	MaxCreatedFromLength = 255
)

// Slugify transliterates s to lowercase ASCII and joins the words with
// dashes. Underscores count as separators.
func Slugify(s string) string {
	return slug.Make(strings.ReplaceAll(s, "_", "-"))
}

// ResolveSlug returns the explicit slug normalised, or the slugified name.
func (r CreateRequest) ResolveSlug() string {
	if strings.TrimSpace(r.Slug) != "" {
		return Slugify(r.Slug)
	}
	return Slugify(r.Name)
}

// Validate checks the input shape of a create request. createdFrom is only
// required when the environment is not the initial one.
func (r *CreateRequest) Validate(initial bool) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if err := maxLen("name", r.Name, MaxNameLength); err != nil {
		return err
	}
	if err := maxLen("slug", r.Slug, MaxSlugLength); err != nil {
		return err
	}
	if err := maxLen("description", r.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := maxLen("createdFrom", r.CreatedFrom, MaxCreatedFromLength); err != nil {
		return err
	}
	if !initial && strings.TrimSpace(r.CreatedFrom) == "" {
		return fmt.Errorf("createdFrom is required: %w", domain.ErrValidation)
	}
	if r.ResolveSlug() == "" {
		return fmt.Errorf("slug must contain at least one letter or digit: %w", domain.ErrValidation)
	}
	return nil
}

// Validate checks the fields allowed on update.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("name must not be empty: %w", domain.ErrValidation)
		}
		if err := maxLen("name", name, MaxNameLength); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Description != nil {
		if err := maxLen("description", *r.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the input shape of an alias create request.
func (r *CreateAliasRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if err := maxLen("name", r.Name, MaxNameLength); err != nil {
		return err
	}
	if err := maxLen("slug", r.Slug, MaxSlugLength); err != nil {
		return err
	}
	if err := maxLen("description", r.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if strings.TrimSpace(r.Environment) == "" {
		return fmt.Errorf("environment is required: %w", domain.ErrValidation)
	}
	if r.ResolveSlug() == "" {
		return fmt.Errorf("slug must contain at least one letter or digit: %w", domain.ErrValidation)
	}
	return nil
}

// ResolveSlug returns the explicit slug normalised, or the slugified name.
func (r CreateAliasRequest) ResolveSlug() string {
	if strings.TrimSpace(r.Slug) != "" {
		return Slugify(r.Slug)
	}
	return Slugify(r.Name)
}

// Validate checks the mutable alias fields.
func (r *UpdateAliasRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("name must not be empty: %w", domain.ErrValidation)
		}
		if err := maxLen("name", name, MaxNameLength); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Description != nil {
		if err := maxLen("description", *r.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	if r.Environment != nil && strings.TrimSpace(*r.Environment) == "" {
		return fmt.Errorf("environment must not be empty: %w", domain.ErrValidation)
	}
	return nil
}

func maxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%s must be at most %d characters: %w", field, limit, domain.ErrValidation)
	}
	return nil
}
