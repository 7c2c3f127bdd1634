package domain

import "fmt"

// ConfigProfile is a named section of the CLI profile file.
type ConfigProfile struct {
	Name   string
	UserID string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Name, c.UserID)
}
