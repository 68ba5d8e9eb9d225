package relayer

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEmitter is returned when a pushed log comes from a contract outside the pair
var ErrUnexpectedEmitter = errors.New("log was not emitted by the configured contract")

// ConfigurationError is a fatal error in the invocation's settings
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// DecodeError is returned when a pushed log is not a well-formed TokensBurned event
type DecodeError struct {
	ChainID int64
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode burn log on chain %d: %v", e.ChainID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RouteError is returned when no route exists for a source chain
type RouteError struct {
	SourceChainID int64
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("no route for source chain %d", e.SourceChainID)
}
