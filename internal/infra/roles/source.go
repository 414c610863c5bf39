// Package roles loads role content files. A role is a named block of
// instructional text appended to the base prompt when its trigger
// fires.
package roles

import (
	"fmt"
	"os"
	"strings"

	"github.com/musher-dev/musher/internal/domain"
)

// Source implements domain.RoleSource over .musher/roles/<name>.md
// files. Content is read fresh on every load so an operator can edit a
// role mid-run.
type Source struct {
	musherDir string
}

// NewSource creates a role source over the state directory.
func NewSource(musherDir string) *Source {
	return &Source{musherDir: musherDir}
}

// Load reads the role content for name.
func (s *Source) Load(name string) (*domain.Role, error) {
	if !validRoleName(name) {
		return nil, fmt.Errorf("invalid role name %q", name)
	}
	content, err := os.ReadFile(domain.RolePath(s.musherDir, name))
	if err != nil {
		return nil, fmt.Errorf("load role %q: %w", name, err)
	}
	return &domain.Role{
		Name:    name,
		Content: strings.TrimSpace(string(content)),
	}, nil
}

// validRoleName keeps role names to plain identifiers. Role names come
// from trigger configuration and become file path components.
func validRoleName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// Ensure Source implements domain.RoleSource.
var _ domain.RoleSource = (*Source)(nil)
