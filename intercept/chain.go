package intercept

import "context"

// Next forwards a Call to the next stage of the pipeline.
type Next func(ctx context.Context, call *Call) (*Result, error)

// Interceptor is one stage of the pipeline. Handle must either call next exactly
// once or return its own Result without calling it.
type Interceptor interface {
	Handle(ctx context.Context, call *Call, next Next) (*Result, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, call *Call, next Next) (*Result, error)

// Handle implements Interceptor.
func (f InterceptorFunc) Handle(ctx context.Context, call *Call, next Next) (*Result, error) {
	return f(ctx, call, next)
}

// Chain runs interceptors in order; the first is outermost.
type Chain []Interceptor

// Then composes the chain in front of final.
func (c Chain) Then(final Next) Next {
	next := final
	for i := len(c) - 1; i >= 0; i-- {
		next = bind(c[i], next)
	}
	return next
}

func bind(i Interceptor, next Next) Next {
	return func(ctx context.Context, call *Call) (*Result, error) {
		return i.Handle(ctx, call, next)
	}
}
