package retry

import "context"

// Value 以类型安全的方式执行带返回值的重试，fn 收到与重试器相同的 ctx
//
//	reply, err := retry.Value(ctx, r, func(ctx context.Context) (string, error) {
//	    return client.complete(ctx, messages)
//	})
func Value[T any](ctx context.Context, r Retryer, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func() error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
