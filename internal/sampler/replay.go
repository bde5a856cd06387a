package sampler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplaySource plays back readings from a JSON-lines file. Used by the
// agent mode for simulation and by tests.
type ReplaySource struct {
	path string
	pace time.Duration
}

// NewReplaySource returns a source that emits one reading per line of the
// file, pace apart.
func NewReplaySource(path string, pace time.Duration) *ReplaySource {
	return &ReplaySource{path: path, pace: pace}
}

func (r *ReplaySource) Subscribe(ctx context.Context, _ Options) (<-chan Reading, <-chan error, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("replay source: %w", err)
	}

	readings := make(chan Reading)
	errs := make(chan error, 1)

	go func() {
		defer f.Close()
		defer close(readings)
		defer close(errs)

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var rec Reading
			if err := json.Unmarshal(line, &rec); err != nil {
				// Skip unparseable lines, the stream keeps going.
				continue
			}

			select {
			case readings <- rec:
			case <-ctx.Done():
				return
			}

			select {
			case <-time.After(r.pace):
			case <-ctx.Done():
				return
			}
		}
	}()

	return readings, errs, nil
}
