// Package mcp implements the Model Context Protocol (MCP) server for asrsmcp.
package mcp

import (
	"context"
	"errors"
	"fmt"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
)

// Custom MCP error codes for asrsmcp.
const (
	// ErrCodeIncidentNotFound indicates an identifier that matches no record.
	ErrCodeIncidentNotFound = -32001

	// ErrCodePrecondition indicates a record lacks data the request needs.
	ErrCodePrecondition = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeCorpusUnavailable indicates the incident corpus could not be read.
	ErrCodeCorpusUnavailable = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if ae, ok := amerrors.As(err); ok {
		return mapStructuredError(ae)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

// mapStructuredError converts a structured error to an MCPError.
func mapStructuredError(ae *amerrors.Error) *MCPError {
	message := amerrors.FormatForUser(ae)

	switch ae.Category {
	case amerrors.CategoryValidation:
		if ae.Code == amerrors.ErrCodeUnknownTool {
			return &MCPError{Code: ErrCodeMethodNotFound, Message: message}
		}
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case amerrors.CategoryNotFound:
		return &MCPError{Code: ErrCodeIncidentNotFound, Message: message}
	case amerrors.CategoryPrecondition:
		return &MCPError{Code: ErrCodePrecondition, Message: message}
	case amerrors.CategoryIO:
		switch ae.Code {
		case amerrors.ErrCodeFileNotFound, amerrors.ErrCodeCorpusInvalid, amerrors.ErrCodeCorpusEmpty:
			return &MCPError{Code: ErrCodeCorpusUnavailable, Message: message}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: message}
		}
	default: // CategoryConfig, CategoryInternal and unknown
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
