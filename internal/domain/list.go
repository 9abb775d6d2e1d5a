package domain

import (
	"slices"
	"time"
)

// List is a shared named collection of todos with an access-control
// list of collaborator principal ids. Invariant: the creator is always
// a collaborator, deduplicated, and always first in the set.
type List struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Collaborators []string  `json:"collaborators"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewList constructs a list owned by creatorID. The creator is prepended
// to the collaborator set even when the input already contains it; the
// result is deduplicated with input order otherwise preserved.
func NewList(id, name, creatorID string, collaborators []string) *List {
	now := time.Now()
	return &List{
		ID:            id,
		Name:          name,
		Collaborators: NormalizeCollaborators(creatorID, collaborators),
		CreatedBy:     creatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NormalizeCollaborators returns dedup([creator] ++ extra) with empty
// entries dropped.
func NormalizeCollaborators(creatorID string, extra []string) []string {
	out := make([]string, 0, len(extra)+1)
	seen := make(map[string]bool, len(extra)+1)

	out = append(out, creatorID)
	seen[creatorID] = true

	for _, c := range extra {
		if c == "" || seen[c] {
			continue
		}
		out = append(out, c)
		seen[c] = true
	}
	return out
}

// HasCollaborator reports whether the principal is in the list's
// collaborator set.
func (l *List) HasCollaborator(principalID string) bool {
	if principalID == "" {
		return false
	}
	return slices.Contains(l.Collaborators, principalID)
}

// Validate checks the invariants a decoded list record must satisfy,
// including the creator-is-collaborator invariant.
func (l *List) Validate() error {
	if l.ID == "" {
		return ErrMissingID
	}
	if l.Name == "" {
		return ErrMissingField("name")
	}
	if l.CreatedBy == "" {
		return ErrMissingField("created_by")
	}
	if !slices.Contains(l.Collaborators, l.CreatedBy) {
		return ErrMissingField("collaborators")
	}
	return nil
}
