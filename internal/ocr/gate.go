package ocr

import "context"

// runGate admits one engine run at a time. A run keeps its slot until it
// returns, even after the caller gave up on it, so runs that cannot be
// interrupted never pile up behind a timeout.
type runGate chan struct{}

func newRunGate() runGate {
	return make(runGate, 1)
}

func (g runGate) do(ctx context.Context, fn func() (string, error)) (string, error) {
	select {
	case g <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() { <-g }()
		text, err := fn()
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
