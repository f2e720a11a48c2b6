package models

import "testing"

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"1234567890", true},
		{"0000000000", true},
		{"123456789", false},
		{"12345678901", false},
		{"12345abcde", false},
		{"123456789 ", false},
		{"", false},
		{"123456789о", false}, // cyrillic homoglyph
	}

	for _, tt := range tests {
		err := ValidatePhone(tt.phone)
		if tt.valid && err != nil {
			t.Errorf("ValidatePhone(%q) = %v, want nil", tt.phone, err)
		}
		if !tt.valid && err != ErrInvalidPhone {
			t.Errorf("ValidatePhone(%q) = %v, want ErrInvalidPhone", tt.phone, err)
		}
	}
}

func TestContactPhones(t *testing.T) {
	c := &Contact{Name: "John", Phones: []string{"1234567890", "5555555555"}}

	if !c.HasPhone("1234567890") {
		t.Error("HasPhone should find a stored number")
	}
	if c.HasPhone("9999999999") {
		t.Error("HasPhone should not find an absent number")
	}
	if got := c.PhoneList(); got != "1234567890; 5555555555" {
		t.Errorf("PhoneList = %q", got)
	}

	empty := &Contact{Name: "Jane"}
	if got := empty.PhoneList(); got != "-" {
		t.Errorf("PhoneList of empty contact = %q, want -", got)
	}
}
