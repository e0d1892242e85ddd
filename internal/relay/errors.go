package relay

import (
	"fmt"
	"strconv"
)

// ConfigError reports a missing or invalid configuration entry.
type ConfigError struct {
	Account int
	Field   string
}

func (e ConfigError) Error() string {
	if e.Account < 0 {
		return fmt.Sprintf("config: missing or empty %q", e.Field)
	}
	return "config: account " + strconv.Itoa(e.Account) + ": missing or empty " + strconv.Quote(e.Field)
}

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

// ResponseError indicates a destination platform returned a response that
// is missing expected fields or carries an error payload.
type ResponseError struct {
	Provider string
	Reason   string
}

func (e ResponseError) Error() string {
	return fmt.Sprintf("%s returned a malformed response: %s", e.Provider, e.Reason)
}
