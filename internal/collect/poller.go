package collect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

// Default poller settings.
const (
	DefaultBatchTimeout = 30 * time.Second
)

// PollerConfig holds poller tuning.
type PollerConfig struct {
	// BatchTimeout bounds the connect and read phase of one batch.
	BatchTimeout time.Duration

	// MaxConcurrentBatches limits parallel batches. Zero means unlimited.
	MaxConcurrentBatches int
}

// Poller reads power meter batches concurrently.
//
// Thread Safety:
//   - Poll may be called from several goroutines; each call owns its
//     sessions. Setters must be called before the first Poll.
type Poller struct {
	dialer  Dialer
	decoder Decoder
	cfg     PollerConfig
	logger  Logger
	now     func() time.Time
}

// NewPoller creates a poller that opens sessions with dialer.
func NewPoller(dialer Dialer, cfg PollerConfig) *Poller {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	return &Poller{
		dialer:  dialer,
		decoder: registers.Codec{},
		cfg:     cfg,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// SetDecoder replaces the register decoder.
func (p *Poller) SetDecoder(d Decoder) {
	p.decoder = d
}

// SetClock replaces the wall clock used for record timestamps.
func (p *Poller) SetClock(now func() time.Time) {
	p.now = now
}

// Poll reads every batch and returns the concatenated records of the
// batches that completed, in batch order. Every record carries the same
// minute-truncated timestamp.
//
// Failed or timed-out batches are logged and contribute nothing. The only
// error returned is the context's, when ctx ends before all batches finish.
func (p *Poller) Poll(ctx context.Context, batches []ConnectionBatch) ([]reading.Record, error) {
	recordedAt := reading.CycleTime(p.now())
	results := make([][]reading.Record, len(batches))

	var g errgroup.Group
	if p.cfg.MaxConcurrentBatches > 0 {
		g.SetLimit(p.cfg.MaxConcurrentBatches)
	}

	for i := range batches {
		b := batches[i]
		g.Go(func() error {
			records, err := p.pollBatch(ctx, b, recordedAt)
			if err != nil {
				p.logger.Warn("batch skipped",
					"endpoint", b.Key.Endpoint(),
					"unit_id", b.Key.UnitID,
					"points", len(b.Points),
					"error", err,
				)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // batch goroutines never return errors

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []reading.Record
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// pollBatch connects and reads one batch under the batch deadline. On
// expiry the partial result is dropped and the session is closed once the
// in-flight read returns.
func (p *Poller) pollBatch(ctx context.Context, b ConnectionBatch, recordedAt time.Time) ([]reading.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.BatchTimeout)
	defer cancel()

	sess, err := p.dialer.Dial(ctx, b.Key.Endpoint(), b.Key.UnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unit %d: %w", ErrConnectFailed, b.Key.Endpoint(), b.Key.UnitID, err)
	}

	done := make(chan []reading.Record, 1)
	go func() {
		done <- p.readBatch(ctx, sess, b, recordedAt)
	}()

	select {
	case records := <-done:
		p.closeSession(sess, b.Key)
		return records, nil
	case <-ctx.Done():
		go func() {
			<-done
			p.closeSession(sess, b.Key)
		}()
		return nil, fmt.Errorf("%w: %s after %s", ErrBatchTimeout, b.Key.Endpoint(), p.cfg.BatchTimeout)
	}
}

func (p *Poller) closeSession(sess Session, key ConnectionKey) {
	if err := sess.Close(); err != nil {
		p.logger.Debug("closing session", "endpoint", key.Endpoint(), "error", err)
	}
}

// readBatch reads every point of the batch through sess. The mutex
// serialises requests from the per-register goroutines.
func (p *Poller) readBatch(ctx context.Context, sess Session, b ConnectionBatch, recordedAt time.Time) []reading.Record {
	var mu sync.Mutex
	records := make([]reading.Record, 0, len(b.Points))

	for _, rp := range b.Points {
		values := make([]*float64, len(rp.Descriptors))

		var wg sync.WaitGroup
		for i, d := range rp.Descriptors {
			if i == exportSumField && !rp.Point.ExportSum {
				continue
			}
			if d.Type == registers.None {
				continue
			}

			wg.Add(1)
			go func(i int, d registers.Descriptor) {
				defer wg.Done()
				values[i] = p.readField(ctx, &mu, sess, b.Key, d)
			}(i, d)
		}
		wg.Wait()

		fields := make([]reading.Field, len(PowerFields))
		for i, name := range PowerFields {
			fields[i] = reading.Field{Name: name}
			if i < len(values) {
				fields[i].Value = values[i]
			}
		}

		records = append(records, reading.Record{
			BuildingID:         rp.Point.BuildingID,
			MeasurementPointID: rp.Point.MeasurementPointID,
			RecordedAt:         recordedAt,
			Fields:             fields,
		})
	}

	return records
}

// readField reads and decodes one register. Any failure yields nil.
func (p *Poller) readField(ctx context.Context, mu *sync.Mutex, sess Session, key ConnectionKey, d registers.Descriptor) *float64 {
	words, err := readLocked(ctx, mu, sess, d)
	if err != nil {
		p.logger.Warn("register read failed",
			"endpoint", key.Endpoint(),
			"unit_id", key.UnitID,
			"address", d.Address,
			"error", err,
		)
		return nil
	}

	v, err := p.decoder.Decode(words, d.Type, d.Divisor)
	if err != nil {
		p.logger.Warn("register decode failed",
			"endpoint", key.Endpoint(),
			"unit_id", key.UnitID,
			"address", d.Address,
			"error", err,
		)
		return nil
	}
	return v
}

// readLocked issues one request while holding mu. Requests are not sent
// once ctx has ended.
func readLocked(ctx context.Context, mu *sync.Mutex, sess Session, d registers.Descriptor) ([]uint16, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quantity := d.Type.WordCount()
	var (
		words []uint16
		err   error
	)
	if d.ReadFunction() == registers.ReadHoldingRegisters {
		words, err = sess.ReadHoldingRegisters(d.Address, quantity)
	} else {
		words, err = sess.ReadInputRegisters(d.Address, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: address %d: %w", ErrReadFailed, d.Address, err)
	}
	if len(words) != int(quantity) {
		return nil, fmt.Errorf("%w: address %d returned %d words, want %d", ErrReadFailed, d.Address, len(words), quantity)
	}
	return words, nil
}
