// Package permission defines access grants as a closed set of read, write and
// delete flags. A missing grant never allows anything.
package permission

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/ContentForge/internal/domain"
)

// Permission names used by the environment service.
const (
	ManageSetting      = "cms.manage.setting"
	ManageContentModel = "cms.manage.contentModel"
	// Wildcard matches every permission name.
	Wildcard = "*"
)

// Access is a bit set of Read, Write and Delete.
type Access uint8

const (
	Read Access = 1 << iota
	Write
	Delete

	None Access = 0
	All         = Read | Write | Delete
)

// ParseAccess parses an "rwd" subset string. Characters may appear in any
// order; anything other than r, w or d is rejected.
func ParseAccess(s string) (Access, error) {
	var a Access
	for _, c := range s {
		switch c {
		case 'r':
			a |= Read
		case 'w':
			a |= Write
		case 'd':
			a |= Delete
		default:
			return None, fmt.Errorf("invalid access flag %q in %q: %w", c, s, domain.ErrValidation)
		}
	}
	return a, nil
}

// MustParseAccess is ParseAccess for constant strings.
func MustParseAccess(s string) Access {
	a, err := ParseAccess(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Has reports whether a contains every flag in required. An empty
// requirement is never satisfied.
func (a Access) Has(required Access) bool {
	return required != None && a&required == required
}

func (a Access) String() string {
	var b strings.Builder
	if a&Read != 0 {
		b.WriteByte('r')
	}
	if a&Write != 0 {
		b.WriteByte('w')
	}
	if a&Delete != 0 {
		b.WriteByte('d')
	}
	return b.String()
}

// MarshalJSON encodes the access set as its "rwd" string.
func (a Access) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts only a string of r, w and d characters.
func (a *Access) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("access must be a string: %w", domain.ErrValidation)
	}
	parsed, err := ParseAccess(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Permission grants Access on the named resource. Own restricts the grant to
// records created by the caller's tenant.
type Permission struct {
	Name   string `json:"name"`
	Access Access `json:"rwd"`
	Own    bool   `json:"own,omitempty"`
}

// Allows reports whether p grants required. A nil permission denies.
func (p *Permission) Allows(required Access) bool {
	return p != nil && p.Access.Has(required)
}

// Set is the list of permissions held by one identity.
type Set []Permission

// Lookup resolves name against the set: an exact match wins, then the
// closest "prefix.*" wildcard, then "*". It returns nil when nothing matches.
func (s Set) Lookup(name string) *Permission {
	var best *Permission
	bestLen := -1
	for i := range s {
		p := &s[i]
		switch {
		case p.Name == name:
			return p
		case p.Name == Wildcard:
			if bestLen < 0 {
				best, bestLen = p, 0
			}
		case strings.HasSuffix(p.Name, ".*"):
			prefix := strings.TrimSuffix(p.Name, "*")
			if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
				best, bestLen = p, len(prefix)
			}
		}
	}
	return best
}
