package environment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/Strob0t/ContentForge/internal/domain"
)

// ListQuery narrows and orders an environment list after it has been read.
// Filter is a boolean expression over the fields id, name, slug, description,
// createdFrom, createdOn, createdById, createdByName and status, for example
// `status == "ready" && name startsWith "Prod"`.
type ListQuery struct {
	Filter string
	Sort   string
}

var sortFields = map[string]func(a, b *Environment) int{
	"name":      func(a, b *Environment) int { return strings.Compare(a.Name, b.Name) },
	"slug":      func(a, b *Environment) int { return strings.Compare(a.Slug, b.Slug) },
	"createdOn": func(a, b *Environment) int { return a.CreatedOn.Compare(b.CreatedOn) },
}

// Apply filters and sorts envs. The input slice is not modified.
func (q ListQuery) Apply(envs []Environment) ([]Environment, error) {
	out := make([]Environment, 0, len(envs))
	if strings.TrimSpace(q.Filter) == "" {
		out = append(out, envs...)
	} else {
		program, err := compileFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		for i := range envs {
			ok, err := exprlang.Run(program, filterEnv(&envs[i]))
			if err != nil {
				return nil, fmt.Errorf("evaluate filter: %v: %w", err, domain.ErrValidation)
			}
			if match, _ := ok.(bool); match {
				out = append(out, envs[i])
			}
		}
	}

	if q.Sort == "" {
		return out, nil
	}
	field, desc := strings.CutPrefix(q.Sort, "-")
	cmp, ok := sortFields[field]
	if !ok {
		return nil, fmt.Errorf("unknown sort field %q: %w", field, domain.ErrValidation)
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(&out[i], &out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func compileFilter(expression string) (*exprvm.Program, error) {
	program, err := exprlang.Compile(expression,
		exprlang.Env(filterEnv(&Environment{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %v: %w", err, domain.ErrValidation)
	}
	return program, nil
}

func filterEnv(e *Environment) map[string]any {
	var changed time.Time
	if e.ChangedOn != nil {
		changed = *e.ChangedOn
	}
	return map[string]any{
		"id":            e.ID,
		"name":          e.Name,
		"slug":          e.Slug,
		"description":   e.Description,
		"createdFrom":   e.CreatedFromID(),
		"createdOn":     e.CreatedOn,
		"changedOn":     changed,
		"createdById":   e.CreatedBy.ID,
		"createdByName": e.CreatedBy.Name,
		"status":        string(e.Status),
	}
}
