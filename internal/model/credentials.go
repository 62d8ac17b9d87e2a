package model

// Credentials is the portal account used to log in.
// It is supplied once at startup and never mutated.
type Credentials struct {
	// Username is sent as the portal's mail/account field.
	Username string `json:"username"`

	// Password is sent as the portal's code field.
	Password string `json:"-"`
}

// String returns the username with the password masked so that Credentials
// can be logged or printed safely.
func (c Credentials) String() string {
	if c.Password == "" {
		return c.Username
	}
	return c.Username + ":******"
}

// Empty reports whether either the username or the password is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}
