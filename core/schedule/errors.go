package schedule

import "fmt"

// ConfigError reports a malformed room/slot configuration. It is fatal at
// startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("schedule config %s: %s", e.Field, e.Reason)
}

// ValidationError reports a well formed request that references data the
// schedule does not know about.
type ValidationError struct {
	What  string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unknown %s '%s'", e.What, e.Value)
}

// StorageError reports that a staged change could not be persisted. The
// change was not applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
