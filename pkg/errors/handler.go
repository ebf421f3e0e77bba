package errors

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Process exit codes, one per error family
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitConflict   = 4
	ExitData       = 5
	ExitIO         = 6
)

// ExitCode maps an error to the process exit code for its type
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return ExitValidation
	case ErrorTypeNotFound:
		return ExitNotFound
	case ErrorTypeDuplicateID, ErrorTypeSelfReference:
		return ExitConflict
	case ErrorTypeCorruptData, ErrorTypeVersionMismatch:
		return ExitData
	case ErrorTypeIO:
		return ExitIO
	default:
		return ExitInternal
	}
}

// ErrorHandler reports errors to the user and picks the exit code
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{
		logger: logger,
		debug:  debug,
	}
}

// Handle writes a one-line description of err to w and returns its exit code
func (h *ErrorHandler) Handle(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	code := ExitCode(err)
	appErr := GetAppError(err)
	if appErr == nil {
		h.logger.Error("Unhandled error", zap.Error(err), zap.Int("exit_code", code))
		fmt.Fprintf(w, "error: %v\n", err)
		return code
	}

	fields := []zap.Field{
		zap.String("type", string(appErr.Type)),
		zap.Int("exit_code", code),
	}
	for k, v := range appErr.Details {
		fields = append(fields, zap.Any(k, v))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Cause))
	}

	if code == ExitInternal {
		h.logger.Error(appErr.Message, fields...)
	} else {
		h.logger.Debug(appErr.Message, fields...)
	}

	fmt.Fprintf(w, "error: %s\n", h.describe(appErr))
	if h.debug && appErr.StackTrace != "" {
		fmt.Fprint(w, appErr.StackTrace)
	}
	return code
}

func (h *ErrorHandler) describe(e *AppError) string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}
