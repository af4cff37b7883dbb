package influxdb

import (
	"context"
	"fmt"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoints writes points in requests of at most the configured batch size.
//
// Writing stops at the first rejected request; earlier requests stay
// committed.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - points: Points to write; an empty slice is a no-op
//
// Returns:
//   - error: ErrNotConnected, or ErrWriteFailed wrapping the server error
func (c *Client) WritePoints(ctx context.Context, points []*write.Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	for start := 0; start < len(points); start += c.batchSize {
		end := min(start+c.batchSize, len(points))
		if err := c.writeAPI.WritePoint(ctx, points[start:end]...); err != nil {
			return fmt.Errorf("%w: points %d-%d: %w", ErrWriteFailed, start, end-1, err)
		}
	}

	return nil
}
