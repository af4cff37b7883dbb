package collect

import (
	"fmt"
	"net"
	"strconv"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/registers"
)

// PowerFields names the record fields of a power meter channel, in the
// order returned by registers.ChannelAddresses.
var PowerFields = [registers.FieldsPerChannel]string{
	"wire",
	"total_a", "total_w", "total_pf",
	"r_v", "r_a", "r_w", "r_pf",
	"s_v", "s_a", "s_w", "s_pf",
	"t_v", "t_a", "t_w", "t_pf",
	"kwh_sum", "kwh_export_sum",
}

// exportSumField is the index of the field gated by PowerPoint.ExportSum.
const exportSumField = registers.FieldsPerChannel - 1

// ConnectionKey identifies one physical connection and the per-point flags
// that must match for points to share it.
type ConnectionKey struct {
	Host      string
	Port      int
	UnitID    uint8
	ExportSum bool
}

// Endpoint returns host:port.
func (k ConnectionKey) Endpoint() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

// ResolvedPoint is a power point with its channel's descriptors, one per
// entry of PowerFields.
type ResolvedPoint struct {
	Point       catalog.PowerPoint
	Descriptors []registers.Descriptor
}

// ConnectionBatch is the set of points polled through one session.
type ConnectionBatch struct {
	Key    ConnectionKey
	Points []ResolvedPoint
}

// GroupBatches resolves every point's channel registers against mm and
// groups points by connection key.
//
// Batches keep the order in which their keys first appear in points, and
// points keep their relative order within a batch. If any address is
// missing from mm the whole grouping fails and the error names the address.
func GroupBatches(points []catalog.PowerPoint, mm *registers.MemoryMap) ([]ConnectionBatch, error) {
	var batches []ConnectionBatch
	index := make(map[ConnectionKey]int)

	for _, p := range points {
		resolved, err := resolve(p, mm)
		if err != nil {
			return nil, err
		}

		key := ConnectionKey{Host: p.Host, Port: p.Port, UnitID: p.UnitID, ExportSum: p.ExportSum}
		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, ConnectionBatch{Key: key})
		}
		batches[i].Points = append(batches[i].Points, resolved)
	}

	return batches, nil
}

func resolve(p catalog.PowerPoint, mm *registers.MemoryMap) (ResolvedPoint, error) {
	addresses, err := registers.ChannelAddresses(p.Channel)
	if err != nil {
		return ResolvedPoint{}, fmt.Errorf("point %s: %w", p.MeasurementPointID, err)
	}

	descriptors := make([]registers.Descriptor, len(addresses))
	for i, addr := range addresses {
		d, err := mm.Get(addr)
		if err != nil {
			return ResolvedPoint{}, fmt.Errorf("point %s channel %d: %w", p.MeasurementPointID, p.Channel, err)
		}
		descriptors[i] = d
	}

	return ResolvedPoint{Point: p, Descriptors: descriptors}, nil
}
