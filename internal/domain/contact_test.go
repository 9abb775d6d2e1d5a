package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContact_Sanitize(t *testing.T) {
	c := &Contact{
		ID:        "contact-1",
		Name:      "  Jane Doe  ",
		Email:     " ",
		Phones:    []string{"", " 555-0100 ", "  "},
		Birthday:  "",
		Company:   "  Acme  ",
		CreatedBy: "user-a",
	}

	c.Sanitize()

	assert.Equal(t, "Jane Doe", c.Name)
	assert.Empty(t, c.Email, "blank optional fields are dropped, not stored")
	assert.Equal(t, []string{"555-0100"}, c.Phones)
	assert.Equal(t, "Acme", c.Company)
}

func TestContact_Sanitize_AllPhonesBlank(t *testing.T) {
	c := &Contact{Name: "Jane", Phones: []string{"", "  "}}
	c.Sanitize()
	assert.Nil(t, c.Phones)
}

func TestContact_Validate(t *testing.T) {
	c := &Contact{ID: "contact-1", Name: "Jane", CreatedBy: "user-a"}
	require.NoError(t, c.Validate())

	assert.Error(t, (&Contact{Name: "Jane", CreatedBy: "user-a"}).Validate())
	assert.Error(t, (&Contact{ID: "contact-1", CreatedBy: "user-a"}).Validate())
	assert.Error(t, (&Contact{ID: "contact-1", Name: "Jane"}).Validate())
}

func TestUser_Name(t *testing.T) {
	withDisplay := &User{Email: "jane@example.com", DisplayName: "Jane"}
	assert.Equal(t, "Jane", withDisplay.Name())

	emailOnly := &User{Email: "jane@example.com"}
	assert.Equal(t, "jane", emailOnly.Name())
}
