// Package dispatch runs calculations behind a request/response envelope,
// either on a background worker pool or inline, with timeout and fallback
// handling.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operation names a calculation the dispatcher can run.
type Operation string

const (
	OpPartitionFullGrid        Operation = "partition-full-grid"
	OpPartitionWithAccessories Operation = "partition-with-accessories"
	OpCostBundle               Operation = "cost-bundle"
	OpBatchCost                Operation = "batch-cost-multiple-grids"
)

// Operations lists every supported operation.
var Operations = []Operation{
	OpPartitionFullGrid,
	OpPartitionWithAccessories,
	OpCostBundle,
	OpBatchCost,
}

// Error codes carried in Response.Code.
const (
	CodeInvalidArgument  = "invalid_argument"
	CodeUnknownOperation = "unknown_operation"
	CodeInternal         = "internal"
)

// Request is the message sent to an executor.
type Request struct {
	ID        string          `json:"requestId"`
	Operation Operation       `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
}

// Response carries either a result or an error message for a request id.
type Response struct {
	ID     string          `json:"requestId"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

var (
	// ErrTimeout is returned when no response arrived within the dispatch
	// timeout. The computation itself keeps running.
	ErrTimeout = errors.New("dispatch timed out")
	// ErrUnavailable is returned when an executor cannot accept requests.
	ErrUnavailable = errors.New("executor unavailable")
)

// RemoteError is a failure reported by the handler inside a Response.
type RemoteError struct {
	Operation Operation
	RequestID string
	Code      string
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (request %s): %s", e.Operation, e.RequestID, e.Message)
}

// InvalidArgument reports whether the request itself was at fault.
func (e *RemoteError) InvalidArgument() bool {
	return e.Code == CodeInvalidArgument || e.Code == CodeUnknownOperation
}
