package llm

import "context"

type callKey struct{}

// Call says why a completion is made. It rides in the context so the
// logging layer can attribute each request.
type Call struct {
	Purpose string
	Level   string
}

func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the Call stored in ctx. Purpose is "unknown" when unset.
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Purpose == "" {
		c.Purpose = "unknown"
	}
	return c
}

func WithPurpose(ctx context.Context, purpose string) context.Context {
	return WithCall(ctx, Call{Purpose: purpose})
}

func PurposeFrom(ctx context.Context) string {
	return CallFrom(ctx).Purpose
}
