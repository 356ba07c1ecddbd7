package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the authorization level of a user.
type Role string

// Roles known to the backend.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
)

// ParseRole normalizes a role or a backend authority such as "ROLE_ADMIN".
// Unknown values map to RoleUser.
func ParseRole(s string) Role {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	switch r {
	case RoleAdmin, RoleOwner:
		return r
	default:
		return RoleUser
	}
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleOwner
}

// UnmarshalJSON accepts both plain roles and ROLE_ authorities.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// User is an account as returned by the backend.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      Role       `json:"role"`
	Enabled   bool       `json:"enabled"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`

	Profile
}

// GetID returns the user id.
func (u User) GetID() int64 { return u.ID }

// FullName joins the first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Address is a postal address on a user profile.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Profile holds the optional contact and identity fields of a user. The
// backend serves the two addresses as flat address1*/address2* fields.
type Profile struct {
	AlternateEmail       string `json:"alternateEmail,omitempty" validate:"omitempty,email"`
	PhoneNumber          string `json:"phoneNumber,omitempty" validate:"max=20"`
	AlternatePhoneNumber string `json:"alternatePhoneNumber,omitempty" validate:"max=20"`

	Address1Line1      string `json:"address1Line1,omitempty" validate:"max=255"`
	Address1Line2      string `json:"address1Line2,omitempty" validate:"max=255"`
	Address1City       string `json:"address1City,omitempty" validate:"max=100"`
	Address1State      string `json:"address1State,omitempty" validate:"max=100"`
	Address1PostalCode string `json:"address1PostalCode,omitempty" validate:"max=20"`
	Address1Country    string `json:"address1Country,omitempty" validate:"max=100"`

	Address2Line1      string `json:"address2Line1,omitempty" validate:"max=255"`
	Address2Line2      string `json:"address2Line2,omitempty" validate:"max=255"`
	Address2City       string `json:"address2City,omitempty" validate:"max=100"`
	Address2State      string `json:"address2State,omitempty" validate:"max=100"`
	Address2PostalCode string `json:"address2PostalCode,omitempty" validate:"max=20"`
	Address2Country    string `json:"address2Country,omitempty" validate:"max=100"`

	ProfilePictureURL   string `json:"profilePictureUrl,omitempty"`
	IDDocument1URL      string `json:"idDocument1Url,omitempty"`
	IDDocument1Filename string `json:"idDocument1Filename,omitempty"`
	IDDocument2URL      string `json:"idDocument2Url,omitempty"`
	IDDocument2Filename string `json:"idDocument2Filename,omitempty"`
}

// PrimaryAddress returns the first address as a value.
func (p Profile) PrimaryAddress() Address {
	return Address{
		Line1: p.Address1Line1, Line2: p.Address1Line2, City: p.Address1City,
		State: p.Address1State, PostalCode: p.Address1PostalCode, Country: p.Address1Country,
	}
}

// SecondaryAddress returns the second address as a value.
func (p Profile) SecondaryAddress() Address {
	return Address{
		Line1: p.Address2Line1, Line2: p.Address2Line2, City: p.Address2City,
		State: p.Address2State, PostalCode: p.Address2PostalCode, Country: p.Address2Country,
	}
}
