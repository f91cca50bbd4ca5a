package domain

import "errors"

var ErrUnauthenticated = errors.New("no session token")

type Civilite string

const (
	CiviliteMr  Civilite = "mr"
	CiviliteMme Civilite = "mme"
	CiviliteEnt Civilite = "ent"
	CiviliteAut Civilite = "aut"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Civilite    Civilite `json:"civilite,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
	VATNumber   string   `json:"vat_number,omitempty"`
	Role        Role     `json:"role,omitempty"`
}

func (u *User) Validate() error {
	if u.ID <= 0 {
		return errors.New("user id must be positive")
	}
	if u.Email == "" {
		return errors.New("user email must not be empty")
	}
	return nil
}

// Session pairs the bearer token with the lazily fetched user profile.
// A non-nil token with a nil user is the valid "profile loading" state and
// must never be read as logged out.
type Session struct {
	Token *string
	User  *User
}

func (s Session) Authenticated() bool {
	return s.Token != nil && *s.Token != ""
}
