package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"

	// Plugin lifecycle errors
	ErrorTypeRegistration ErrorType = "registration"
	ErrorTypeDiscovery    ErrorType = "discovery"
	ErrorTypeForbidden    ErrorType = "forbidden"

	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes returned to HTTP clients
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRegistration     = "REGISTRATION_FAILED"
	CodeDiscovery        = "DISCOVERY_FAILED"
	CodeNotDisableable   = "NOT_DISABLEABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	Stack      []string       `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.InnerError != nil {
		return msg + ": " + e.InnerError.Error()
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// Is matches another AppError of the same type
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	e.Stack = captureStack(3)
	return e
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Code:       string(ErrorTypeUnknown),
		InnerError: err,
	}
}

// Wrap wraps an error with a specific type
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       string(errType),
		Message:    message,
		InnerError: err,
	}
}

// Sentinels for errors.Is checks against a type.
var (
	ErrNotFound     = New(ErrorTypeNotFound, "not found")
	ErrConflict     = New(ErrorTypeConflict, "conflict")
	ErrRegistration = New(ErrorTypeRegistration, "registration failed")
	ErrDiscovery    = New(ErrorTypeDiscovery, "discovery failed")
	ErrValidation   = New(ErrorTypeValidation, "validation failed")
)

func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message).
		WithCode(CodeValidationFailed).
		WithHTTPStatus(http.StatusBadRequest)
}

func NewNotFound(resource string, id any) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource)).
		WithCode(CodeNotFound).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusNotFound)
}

func NewConflict(resource string, id any) *AppError {
	return New(ErrorTypeConflict, fmt.Sprintf("%s already exists", resource)).
		WithCode(CodeConflict).
		WithDetail("resource", resource).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusConflict)
}

// NewRegistration reports a plugin that could not be registered.
func NewRegistration(family, id string, err error) *AppError {
	return New(ErrorTypeRegistration, fmt.Sprintf("register %s %q", family, id)).
		WithCode(CodeRegistration).
		WithDetail("family", family).
		WithDetail("id", id).
		WithInnerError(err).
		WithHTTPStatus(http.StatusUnprocessableEntity)
}

// NewDiscovery reports a plugin manifest that could not be loaded.
func NewDiscovery(path string, err error) *AppError {
	return New(ErrorTypeDiscovery, fmt.Sprintf("load plugin manifest %s", path)).
		WithCode(CodeDiscovery).
		WithDetail("path", path).
		WithInnerError(err).
		WithHTTPStatus(http.StatusUnprocessableEntity)
}

// NewNotDisableable reports an attempt to switch off a locked plugin.
func NewNotDisableable(id string) *AppError {
	return New(ErrorTypeForbidden, fmt.Sprintf("plugin %q cannot be disabled", id)).
		WithCode(CodeNotDisableable).
		WithDetail("id", id).
		WithHTTPStatus(http.StatusConflict)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).
		WithCode(CodeInternalError).
		WithHTTPStatus(http.StatusInternalServerError)
}

// FromPanic converts a recovered panic value into an AppError with a stack.
func FromPanic(r any) *AppError {
	var appErr *AppError
	switch v := r.(type) {
	case error:
		appErr = Wrap(v, ErrorTypeInternal, "panic recovered")
	case string:
		appErr = New(ErrorTypeInternal, v)
	default:
		appErr = New(ErrorTypeInternal, fmt.Sprintf("%v", v))
	}
	return appErr.WithStack()
}

// HTTPErrorResponse represents an HTTP error response
type HTTPErrorResponse struct {
	HTTPStatus int           `json:"-"`
	Error      ErrorResponse `json:"error"`
}

// ErrorResponse represents the error part of an HTTP response
type ErrorResponse struct {
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToHTTPResponse converts any error to an HTTP response body and status.
func ToHTTPResponse(err error) HTTPErrorResponse {
	appErr := FromError(err)
	response := HTTPErrorResponse{
		HTTPStatus: appErr.HTTPStatus,
		Error: ErrorResponse{
			Type:    string(appErr.Type),
			Code:    appErr.Code,
			Message: appErr.Error(),
			Details: appErr.Details,
		},
	}
	if response.HTTPStatus == 0 {
		response.HTTPStatus = http.StatusInternalServerError
	}
	return response
}

func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}

// ErrorChain collects independent failures, such as one per plugin in a
// registration pass.
type ErrorChain struct {
	errors []*AppError
}

// NewErrorChain creates a new error chain
func NewErrorChain() *ErrorChain {
	return &ErrorChain{
		errors: make([]*AppError, 0),
	}
}

// Add adds an error to the chain
func (c *ErrorChain) Add(err *AppError) *ErrorChain {
	if err != nil {
		c.errors = append(c.errors, err)
	}
	return c
}

// HasErrors checks if the chain has errors
func (c *ErrorChain) HasErrors() bool {
	return len(c.errors) > 0
}

// Error returns the combined error message
func (c *ErrorChain) Error() string {
	if !c.HasErrors() {
		return ""
	}

	messages := make([]string, 0, len(c.errors))
	for _, err := range c.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, " | ")
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (c *ErrorChain) Unwrap() []error {
	out := make([]error, 0, len(c.errors))
	for _, err := range c.errors {
		out = append(out, err)
	}
	return out
}

// Errors returns all errors in the chain
func (c *ErrorChain) Errors() []*AppError {
	return c.errors
}

func (c *ErrorChain) Len() int {
	return len(c.errors)
}

// First returns the first error in the chain
func (c *ErrorChain) First() *AppError {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0]
}

// HasType checks if the chain has an error of the specified type
func (c *ErrorChain) HasType(errType ErrorType) bool {
	for _, err := range c.errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// ErrOrNil returns the chain as an error, or nil when it is empty.
func (c *ErrorChain) ErrOrNil() error {
	if c == nil || !c.HasErrors() {
		return nil
	}
	return c
}
