package intercept

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go/middleware"
)

// StageID is the middleware ID the Stage registers under.
const StageID = "ItemCache"

// Stage runs a Chain at the Initialize step of the SDK middleware stack.
type Stage struct {
	chain Chain
}

// NewStage creates a Stage running interceptors in order.
func NewStage(interceptors ...Interceptor) *Stage {
	return &Stage{chain: Chain(interceptors)}
}

// ID implements middleware.InitializeMiddleware.
func (s *Stage) ID() string {
	return StageID
}

// HandleInitialize implements middleware.InitializeMiddleware.
func (s *Stage) HandleInitialize(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (
	middleware.InitializeOutput, middleware.Metadata, error,
) {
	final := func(ctx context.Context, _ *Call) (*Result, error) {
		out, md, err := next.HandleInitialize(ctx, in)
		return &Result{Output: out.Result, Metadata: md}, err
	}

	res, err := s.chain.Then(final)(ctx, CallFor(in.Parameters))
	if res == nil {
		return middleware.InitializeOutput{}, middleware.Metadata{}, err
	}
	return middleware.InitializeOutput{Result: res.Output}, res.Metadata, err
}

// Register adds the Stage to stack after the SDK's own initialize steps, so
// parameter validation still runs first.
func (s *Stage) Register(stack *middleware.Stack) error {
	return stack.Initialize.Add(s, middleware.After)
}

// WithInterceptors installs interceptors on a DynamoDB client:
//
//	client := dynamodb.NewFromConfig(cfg, intercept.WithInterceptors(readThrough))
func WithInterceptors(interceptors ...Interceptor) func(*dynamodb.Options) {
	stage := NewStage(interceptors...)
	return func(o *dynamodb.Options) {
		o.APIOptions = append(o.APIOptions, stage.Register)
	}
}
