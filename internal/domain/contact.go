package domain

import (
	"strings"
	"time"
)

// Contact is a user-scoped item: it has no parent list and is visible
// only to the principal that created it.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phones    []string  `json:"phones,omitempty"`
	Birthday  string    `json:"birthday,omitempty"` // YYYY-MM-DD, display only
	Company   string    `json:"company,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sanitize trims the name and drops empty optional fields so they are
// never written to the store as empty strings. Blank phone entries are
// removed entirely.
func (c *Contact) Sanitize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Birthday = strings.TrimSpace(c.Birthday)
	c.Company = strings.TrimSpace(c.Company)

	phones := c.Phones[:0]
	for _, p := range c.Phones {
		if p = strings.TrimSpace(p); p != "" {
			phones = append(phones, p)
		}
	}
	if len(phones) == 0 {
		phones = nil
	}
	c.Phones = phones
}

// Validate checks the invariants a decoded contact record must satisfy.
func (c *Contact) Validate() error {
	if c.ID == "" {
		return ErrMissingID
	}
	if c.Name == "" {
		return ErrMissingField("name")
	}
	if c.CreatedBy == "" {
		return ErrMissingField("created_by")
	}
	return nil
}
