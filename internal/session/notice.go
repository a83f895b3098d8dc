package session

import (
	"context"
	"fmt"
	"io"
)

const SeenWarningKey = "seen-warning"

const SlowBackendNotice = "Heads up: the server may take up to a minute to respond to the first request after a period of inactivity."

// Notice печатает предупреждение один раз за сессию и возвращает, было ли оно показано
func Notice(ctx context.Context, store Store, w io.Writer) (bool, error) {
	seen, _, err := store.Get(ctx, SeenWarningKey)
	if err != nil {
		return false, err
	}
	if seen == "true" {
		return false, nil
	}

	if _, err := fmt.Fprintln(w, SlowBackendNotice); err != nil {
		return false, err
	}
	if err := store.Set(ctx, SeenWarningKey, "true"); err != nil {
		return true, err
	}
	return true, nil
}
