package domain

import "time"

// User is an account that owns contact lists and campaigns. Requests are
// authenticated with the account's API key.
type User struct {
	ID        string
	Email     string
	Name      string
	APIKey    string
	CreatedAt time.Time
}
