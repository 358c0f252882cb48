package msg

import "fmt"

// ResolutionError reports a missing interpreter, a missing target binary or
// an ELF class that could not be determined.
type ResolutionError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConfigError reports an unreadable or malformed auxiliary file
// (.env, .preload, .app, *.desktop).
type ConfigError struct {
	File string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.File, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ExecError wraps the OS error returned by a failed process replacement.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to run: %s: %v", e.Path, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
