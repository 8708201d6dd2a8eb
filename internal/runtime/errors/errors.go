package errors

import (
	sterrors "errors"
	"fmt"
)

// Stable configuration error numbers. Tooling keys off these values, so they
// must never be renumbered.
const (
	CodeNullOrEmptyProperty        = 11114
	CodePropertyChangeAfterStartup = 11115
	CodeNullComponentProperty      = 11116
	CodeNoService                  = 11117
	CodeUnregisteredAdapter        = 11118
	CodeUnknownChannel             = 11119
	CodeInvalidSetting             = 11120
)

var kindNames = map[int]string{
	CodeNullOrEmptyProperty:        "NullOrEmptyProperty",
	CodePropertyChangeAfterStartup: "PropertyChangeAfterStartup",
	CodeNullComponentProperty:      "NullComponentProperty",
	CodeNoService:                  "NoService",
	CodeUnregisteredAdapter:        "UnregisteredAdapter",
	CodeUnknownChannel:             "UnknownChannel",
	CodeInvalidSetting:             "InvalidSetting",
}

var (
	ErrConfigRequired    = sterrors.New("brokercore: configuration is required")
	ErrBrokerRequired    = sterrors.New("brokercore: message broker is required")
	ErrLoggerRequired    = sterrors.New("brokercore: logger is required")
	ErrUnknownTransport  = sterrors.New("brokercore: unknown transport")
	ErrEndpointRequired  = sterrors.New("brokercore: channel endpoint is required")
	ErrAdapterClassEmpty = sterrors.New("brokercore: adapter class name is required")
	ErrUnknownAdapter    = sterrors.New("brokercore: unknown adapter class")
)

// ConfigurationError reports a wiring defect in the broker graph. Errors of
// this type are synchronous and never transient.
type ConfigurationError struct {
	Code    int
	Message string
	Err     error
}

// NewConfigurationError builds a ConfigurationError with a formatted message.
func NewConfigurationError(code int, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapConfigurationError attaches cause to a new ConfigurationError.
func WrapConfigurationError(code int, cause error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Kind returns the symbolic name of the error number.
func (e *ConfigurationError) Kind() string {
	if name, ok := kindNames[e.Code]; ok {
		return name
	}
	return "Unknown"
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("brokercore: %s (code %d)", e.Message, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is matches any ConfigurationError carrying the same code.
func (e *ConfigurationError) Is(target error) bool {
	t, ok := target.(*ConfigurationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the error number of the first ConfigurationError in err's
// chain, or zero.
func CodeOf(err error) int {
	var cfgErr *ConfigurationError
	if sterrors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return 0
}

// HasCode reports whether err carries a ConfigurationError with code. Joined
// errors are searched too.
func HasCode(err error, code int) bool {
	return sterrors.Is(err, &ConfigurationError{Code: code})
}
