package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypePayload represents malformed graph payload input
	ErrorTypePayload ErrorType = "payload"
	// ErrorTypeResolution represents display-name resolution failures
	ErrorTypeResolution ErrorType = "resolution"
	// ErrorTypeSource represents graph data source failures
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Payload Errors

// ErrDanglingLink is recorded when a link endpoint names an unknown node
type ErrDanglingLink struct {
	*BaseError
	LinkID   string
	Endpoint string
}

func NewDanglingLink(linkID, endpoint string) *ErrDanglingLink {
	return &ErrDanglingLink{
		BaseError: NewBaseError(ErrorTypePayload, fmt.Sprintf("link %s references unknown node %q", linkID, endpoint), nil),
		LinkID:    linkID,
		Endpoint:  endpoint,
	}
}

// ErrDuplicateNode is recorded when a node id appears more than once
type ErrDuplicateNode struct {
	*BaseError
	NodeID string
}

func NewDuplicateNode(nodeID string) *ErrDuplicateNode {
	return &ErrDuplicateNode{
		BaseError: NewBaseError(ErrorTypePayload, fmt.Sprintf("duplicate node id: %s", nodeID), nil),
		NodeID:    nodeID,
	}
}

// ErrInvalidAddress is returned when a chain address is not well formed
type ErrInvalidAddress struct {
	*BaseError
	Address string
}

func NewInvalidAddress(address string) *ErrInvalidAddress {
	return &ErrInvalidAddress{
		BaseError: NewBaseError(ErrorTypePayload, fmt.Sprintf("invalid address: %s", address), nil),
		Address:   address,
	}
}

// Resolution Errors

// ErrResolutionFailed is returned when a reverse lookup errors or yields nothing
type ErrResolutionFailed struct {
	*BaseError
	Address string
}

func NewResolutionFailed(address string, err error) *ErrResolutionFailed {
	msg := fmt.Sprintf("name lookup failed for %s", address)
	if err == nil {
		msg = fmt.Sprintf("no name registered for %s", address)
	}
	return &ErrResolutionFailed{
		BaseError: NewBaseError(ErrorTypeResolution, msg, err),
		Address:   address,
	}
}

// ErrResolutionTimeout is returned when a reverse lookup misses its deadline
type ErrResolutionTimeout struct {
	*BaseError
	Address string
	Timeout time.Duration
}

func NewResolutionTimeout(address string, timeout time.Duration) *ErrResolutionTimeout {
	return &ErrResolutionTimeout{
		BaseError: NewBaseError(ErrorTypeResolution, fmt.Sprintf("name lookup timed out for %s (timeout: %v)", address, timeout), nil),
		Address:   address,
		Timeout:   timeout,
	}
}

// ErrProviderRPC is returned when the naming provider answers with a JSON-RPC error
type ErrProviderRPC struct {
	*BaseError
	Code int
}

func NewProviderRPC(code int, message string) *ErrProviderRPC {
	return &ErrProviderRPC{
		BaseError: NewBaseError(ErrorTypeResolution, fmt.Sprintf("rpc error %d: %s", code, message), nil),
		Code:      code,
	}
}

// Source Errors

// ErrSourceUnavailable is returned when graph data cannot be fetched
type ErrSourceUnavailable struct {
	*BaseError
	Source string
}

func NewSourceUnavailable(source string, err error) *ErrSourceUnavailable {
	return &ErrSourceUnavailable{
		BaseError: NewBaseError(ErrorTypeSource, fmt.Sprintf("graph source unavailable: %s", source), err),
		Source:    source,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	var timeout *ErrResolutionTimeout
	if stderrors.As(err, &timeout) {
		return true
	}
	// Source and graph connection errors are transient
	if IsErrorType(err, ErrorTypeSource) || IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	return false
}
