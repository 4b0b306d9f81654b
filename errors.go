package ping

import (
	"fmt"
	"io"
)

// FetchError reports a transport failure, an undecodable body or a missing
// telemetry field.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Cause() error { return e.Err }

// Format prints the cause's stack trace with %+v.
func (e *FetchError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s: %+v", e.Op, e.Err)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// ConfigurationError reports an unrecognized output style.
type ConfigurationError struct {
	Style Style
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("mode %s is invalid.", e.Style)
}
