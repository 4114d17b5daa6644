package models

// Credentials is the login identity for the quiz portal. Loaded once from
// configuration, read-only afterwards.
type Credentials struct {
	Email string
	Pin   string
}
