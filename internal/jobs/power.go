package jobs

import (
	"context"
	"fmt"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/collect"
	"github.com/nerrad567/meterlink/internal/reading"
)

// BatchPoller reads connection batches. *collect.Poller implements it.
type BatchPoller interface {
	Poll(ctx context.Context, batches []collect.ConnectionBatch) ([]reading.Record, error)
}

// PowerJob polls every power meter channel in the catalog.
type PowerJob struct {
	base
	snapshot *catalog.Snapshot
	poller   BatchPoller
}

// NewPowerJob creates the power collection job.
func NewPowerJob(snapshot *catalog.Snapshot, poller BatchPoller, d Deliverer) *PowerJob {
	return &PowerJob{
		base:     newBase(NamePower, d),
		snapshot: snapshot,
		poller:   poller,
	}
}

// Run groups the points into batches, polls them and delivers the records.
//
// A point whose channel addresses are missing from the memory map aborts
// this cycle only; the next tick tries again.
func (j *PowerJob) Run(ctx context.Context) error {
	if len(j.snapshot.PowerPoints) == 0 {
		j.logger.Info("no power points configured; cycle skipped", "job", j.name)
		return nil
	}

	batches, err := collect.GroupBatches(j.snapshot.PowerPoints, j.snapshot.MemoryMap)
	if err != nil {
		return fmt.Errorf("%s: grouping points: %w", j.name, err)
	}
	j.logger.Debug("polling batches",
		"job", j.name,
		"batches", len(batches),
		"points", len(j.snapshot.PowerPoints),
	)

	records, err := j.poller.Poll(ctx, batches)
	if err != nil {
		return fmt.Errorf("%s: polling: %w", j.name, err)
	}

	return j.finish(ctx, reading.SensorPower, records)
}
