package discord

import (
	"errors"
	"fmt"
)

// Definition errors. These surface while a command is being built or registered
// and mean the command itself is wrong.
var (
	ErrArgumentMismatch = errors.New("argument mismatch")
	ErrMinMaxType       = errors.New("min/max set on a non-numeric option")
	ErrMinMaxRange      = errors.New("min value greater than max value")
	ErrTypeResolution   = errors.New("unresolved option type")
	ErrInvalidOption    = errors.New("invalid option definition")
)

// Registration and lookup errors, returned to the caller.
var (
	ErrGuildNotFound   = errors.New("guild has no registered commands")
	ErrCommandNotFound = errors.New("application command not found")
	ErrApplicationID   = errors.New("could not resolve application id")
)

// Dispatch errors. They never leave Dispatch; the command's error hook receives them.
var (
	ErrCheckFailure           = errors.New("check failed")
	ErrAutoCompleteFormatting = errors.New("could not format the returned autocomplete object properly")
	ErrMissingArgument        = errors.New("missing required argument")
	ErrUnknownSubcommand      = errors.New("unknown subcommand")
	ErrHandlerPanic           = errors.New("handler panicked")
	ErrBind                   = errors.New("bind error")
)

// DefinitionError ties a definition-time failure to the command that caused it.
type DefinitionError struct {
	Command string
	Err     error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}
