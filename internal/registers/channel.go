package registers

import "fmt"

// Multi-channel power meter register layout. Each channel owns a block of
// phase and aggregate registers plus two energy counters in separate banks.
const (
	phaseBlockBase   = 2420
	phaseBlockStride = 64

	energySumBase   = 8000
	energySumStride = 18

	exportSumBase   = 9000
	exportSumStride = 4

	// FieldsPerChannel is the number of registers resolved for one channel.
	FieldsPerChannel = len(phaseBlockOffsets) + 2
)

// phaseBlockOffsets are the register offsets inside a channel's phase block,
// in record field order: wiring, totals, then phases R, S and T.
var phaseBlockOffsets = [...]uint32{0, 2, 4, 10, 16, 18, 20, 29, 32, 34, 36, 45, 48, 50, 52, 61}

// ChannelAddresses returns the ordered register addresses of a power meter
// channel. Channels are numbered from 1. The final address is the export
// energy-sum register.
func ChannelAddresses(channel uint16) ([]uint16, error) {
	if channel == 0 {
		return nil, fmt.Errorf("%w: channels start at 1", ErrInvalidChannel)
	}
	n := uint32(channel) - 1

	addresses := make([]uint16, 0, FieldsPerChannel)
	push := func(a uint32) error {
		if a > 0xFFFF {
			return fmt.Errorf("%w: channel %d overflows the address space", ErrInvalidChannel, channel)
		}
		addresses = append(addresses, uint16(a))
		return nil
	}

	base := phaseBlockBase + n*phaseBlockStride
	for _, off := range phaseBlockOffsets {
		if err := push(base + off); err != nil {
			return nil, err
		}
	}
	if err := push(energySumBase + n*energySumStride); err != nil {
		return nil, err
	}
	if err := push(exportSumBase + n*exportSumStride); err != nil {
		return nil, err
	}

	return addresses, nil
}
