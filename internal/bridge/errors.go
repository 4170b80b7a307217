package bridge

import "fmt"

// ErrorKind categorizes command failures surfaced to the client. Every kind
// becomes an error response; none of them terminates the process.
type ErrorKind uint8

const (
	// KindPreparation: the submitted SQL failed to prepare.
	KindPreparation ErrorKind = iota
	// KindExecution: a statement failed while executing.
	KindExecution
	// KindRowProcessing: a failure while materializing rows after execution
	// notionally succeeded.
	KindRowProcessing
	// KindInvalidHandle: a command referenced a statement handle not
	// currently present in the registry.
	KindInvalidHandle
	// KindUnsupported: a recognized but unimplemented command variant.
	KindUnsupported
	// KindProtocol: the line itself could not be decoded as a command.
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindPreparation:
		return "preparation"
	case KindExecution:
		return "execution"
	case KindRowProcessing:
		return "row_processing"
	case KindInvalidHandle:
		return "invalid_cache_index"
	case KindUnsupported:
		return "unsupported"
	case KindProtocol:
		return "protocol"
	}
	return "unknown"
}

// Error is a classified command failure. Error() is exactly the message the
// client sees in the error response.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindPreparation:
		return fmt.Sprintf("SQL preparation error: %s", e.Err)
	case KindExecution:
		return fmt.Sprintf("SQL execution error: %s", e.Err)
	case KindRowProcessing:
		return fmt.Sprintf("SQL row processing error: %s", e.Err)
	case KindInvalidHandle:
		return "Invalid cache index"
	case KindUnsupported:
		return "Feature not supported"
	case KindProtocol:
		return fmt.Sprintf("Invalid command: %s", e.Err)
	}
	return fmt.Sprintf("Unknown error: %s", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
