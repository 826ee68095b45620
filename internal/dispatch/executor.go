package dispatch

import (
	"context"
	"fmt"
)

// Executor runs requests on some execution path.
type Executor interface {
	Name() string
	Execute(ctx context.Context, req Request) (Response, error)
}

// Inline runs requests synchronously on the caller's goroutine.
type Inline struct {
	handle HandleFunc
}

// NewInline returns an executor calling handle directly.
func NewInline(handle HandleFunc) *Inline {
	return &Inline{handle: handle}
}

func (*Inline) Name() string { return "inline" }

// Execute runs the request unless ctx is already done.
func (e *Inline) Execute(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, fmt.Errorf("inline %s: %w", req.Operation, err)
	}
	return e.handle(ctx, req), nil
}
