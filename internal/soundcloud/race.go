package soundcloud

import (
	"context"
	"fmt"
	"sync"
)

// FirstSuccess runs probe for every input concurrently and returns the first
// result produced without error, cancelling the remaining probes. Individual
// probe failures are tolerated; an error is returned only when every probe
// fails or the context is cancelled first.
func FirstSuccess[I, T any](ctx context.Context, inputs []I, probe func(context.Context, I) (T, error)) (T, error) {
	var zero T
	if len(inputs) == 0 {
		return zero, fmt.Errorf("nothing to probe")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan T, len(inputs))
	var wg sync.WaitGroup
	for _, input := range inputs {
		input := input
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := probe(ctx, input); err == nil {
				results <- v
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	select {
	case v, ok := <-results:
		if !ok {
			return zero, fmt.Errorf("all %d probes failed", len(inputs))
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
