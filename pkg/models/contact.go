package models

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPhone is returned when a phone number fails validation
	ErrInvalidPhone = errors.New("Phone number must contain exactly 10 digits")
	// ErrInvalidBirthday is returned when a birthday string fails validation
	ErrInvalidBirthday = errors.New("Invalid date format. Use DD.MM.YYYY")
)

// Contact represents a single address book entry
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phones    []string  `json:"phones"`
	Birthday  *Birthday `json:"birthday,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactRequest represents a request to create or update a contact
type ContactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// PhoneChange represents a phone replacement request
type PhoneChange struct {
	OldPhone string `json:"old_phone"`
	NewPhone string `json:"new_phone"`
}

// ValidatePhone checks that a phone number contains exactly 10 ASCII digits
func ValidatePhone(phone string) error {
	if len(phone) != 10 {
		return ErrInvalidPhone
	}
	for _, ch := range phone {
		if ch < '0' || ch > '9' {
			return ErrInvalidPhone
		}
	}
	return nil
}

// HasPhone reports whether the contact already stores the given number
func (c *Contact) HasPhone(phone string) bool {
	for _, p := range c.Phones {
		if p == phone {
			return true
		}
	}
	return false
}

// PhoneList returns phones joined for display, "-" when empty
func (c *Contact) PhoneList() string {
	if len(c.Phones) == 0 {
		return "-"
	}
	out := c.Phones[0]
	for _, p := range c.Phones[1:] {
		out += "; " + p
	}
	return out
}
