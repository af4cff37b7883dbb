package jobs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/udpframe"
)

// UDPConfig holds the listener settings of one UDP job.
type UDPConfig struct {
	// ListenAddress is the host:port bound on every run.
	ListenAddress string

	// ReceiveWindow bounds one run. The job returns when it elapses even
	// if no datagram arrived.
	ReceiveWindow time.Duration

	// BufferSize is the largest datagram accepted; longer ones are truncated
	// by the socket and fail decoding.
	BufferSize int
}

// deliveryOrder is the order sensor types are delivered at window close.
var deliveryOrder = []string{reading.SensorAirQuality, reading.SensorReceptacle}

type listenFunc func(ctx context.Context, network, address string) (net.PacketConn, error)

// UDPJob receives pushed sensor datagrams for one receive window.
//
// Thread Safety:
//   - Run must not be called concurrently; the scheduler never does.
type UDPJob struct {
	base
	cfg    UDPConfig
	lookup udpframe.PointLookup
	now    func() time.Time // stamps records; socket deadlines use the wall clock
	listen listenFunc
}

// NewUDPJob creates the UDP listener job. lookup is usually the catalog
// snapshot.
func NewUDPJob(cfg UDPConfig, lookup udpframe.PointLookup, d Deliverer) *UDPJob {
	var lc net.ListenConfig
	return &UDPJob{
		base:   newBase(NameUDP, d),
		cfg:    cfg,
		lookup: lookup,
		now:    time.Now,
		listen: lc.ListenPacket,
	}
}

type pointKey struct {
	sensorType string
	point      uuid.UUID
}

// window accumulates records for one run. A later datagram for the same
// point replaces the earlier record.
type window struct {
	index   map[pointKey]int
	records map[string][]reading.Record
}

func newWindow() *window {
	return &window{
		index:   make(map[pointKey]int),
		records: make(map[string][]reading.Record),
	}
}

func (w *window) add(res udpframe.Result) {
	for _, rec := range res.Records {
		k := pointKey{sensorType: res.SensorType, point: rec.MeasurementPointID}
		if i, ok := w.index[k]; ok {
			w.records[res.SensorType][i] = rec
			continue
		}
		w.index[k] = len(w.records[res.SensorType])
		w.records[res.SensorType] = append(w.records[res.SensorType], rec)
	}
}

// Run binds the listen address, reads datagrams until the receive window
// closes or ctx is done, then delivers what was collected.
//
// Bad datagrams are logged with their source and skipped. Only a bind
// failure or a socket error fails the run.
func (j *UDPJob) Run(ctx context.Context) error {
	conn, err := j.listen(ctx, "udp", j.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("%s: binding %s: %w", j.name, j.cfg.ListenAddress, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			j.logger.Warn("closing udp socket failed", "job", j.name, "error", cerr)
		}
	}()

	recordedAt := reading.CycleTime(j.now())
	deadline := time.Now().Add(j.cfg.ReceiveWindow)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("%s: setting read deadline: %w", j.name, err)
	}

	// Unblock ReadFrom as soon as ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	j.logger.Debug("listening for datagrams",
		"job", j.name,
		"address", conn.LocalAddr().String(),
		"window", j.cfg.ReceiveWindow,
	)

	w := newWindow()
	buf := make([]byte, j.cfg.BufferSize)
	datagrams := 0

	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return fmt.Errorf("%s: receiving: %w", j.name, err)
		}
		datagrams++
		j.handle(buf[:n], peer, recordedAt, w)
	}

	j.logger.Debug("receive window closed", "job", j.name, "datagrams", datagrams)

	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	total := 0
	for _, sensorType := range deliveryOrder {
		records := w.records[sensorType]
		if len(records) == 0 {
			continue
		}
		total += len(records)
		if err := j.deliverer.Deliver(ctx, sensorType, records); err != nil {
			errs = append(errs, fmt.Errorf("%s: delivering %s records: %w", j.name, sensorType, err))
		}
	}
	j.counter.RecordsCollected(j.name, total)
	j.logger.Info("cycle collected", "job", j.name, "datagrams", datagrams, "records", total)

	return errors.Join(errs...)
}

// handle decodes and dispatches one datagram into w, stamping its records
// with recordedAt. Failures are logged and only affect this datagram.
func (j *UDPJob) handle(b []byte, peer net.Addr, recordedAt time.Time, w *window) {
	source := "unknown"
	if peer != nil {
		source = peer.String()
	}

	f, err := udpframe.Decode(b)
	if err != nil {
		j.logger.Warn("discarding datagram",
			"job", j.name,
			"source", source,
			"bytes", len(b),
			"error", err,
		)
		return
	}

	res, err := udpframe.Dispatch(f, j.lookup, recordedAt)
	if err != nil {
		j.logger.Warn("discarding frame",
			"job", j.name,
			"source", source,
			"mac", f.Metadata.MAC,
			"device_type", f.Metadata.DeviceType.String(),
			"error", err,
		)
		return
	}
	if len(res.Records) == 0 {
		j.logger.Info("no points bound to device",
			"job", j.name,
			"source", source,
			"mac", f.Metadata.MAC,
			"device_type", f.Metadata.DeviceType.String(),
		)
		return
	}

	w.add(res)
}
