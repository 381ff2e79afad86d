package models

import "strings"

// Account is the user record stored in the `users` collection, keyed by email.
type Account struct {
	Email                 string `json:"email" validate:"required,email"`
	Institute             string `json:"institute"`
	InstituteAbbreviation string `json:"instituteAbbreviation"`
	Faculty               string `json:"faculty"`
	// Address is empty until a wallet is bound.
	Address string `json:"address,omitempty"`
}

// HasAddress reports whether a wallet is bound to the account.
func (a *Account) HasAddress() bool {
	return a != nil && strings.TrimSpace(a.Address) != ""
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
