package helpers

import "context"

// CurrentUser resolves a Telegram user ID to a domain entity via a directory
// that implements Get. The generic type T lets the app supply its own user
// model. A nil directory resolves to the zero value.
func CurrentUser[T any](
	ctx context.Context,
	directory interface {
		Get(context.Context, int64) (T, error)
	},
	tgID int64,
) (T, error) {
	var zero T
	if directory == nil {
		return zero, nil
	}
	return directory.Get(ctx, tgID)
}
