package udpframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FunctionCode is the only function code sensors send.
const FunctionCode = 0x24

// Field sizes.
const (
	headerSize       = 7
	localAddressSize = 6
	ssidSize         = 32
	macSize          = 6

	// MinFrameSize is the size of a frame carrying no registers.
	MinFrameSize = headerSize + 1 + localAddressSize + ssidSize + macSize + 2 + 2 + 1 + 2 + 2
)

// DeviceType identifies the sending device family.
type DeviceType uint8

// Known device types.
const (
	DeviceReceptacle DeviceType = 5
	DeviceAirQuality DeviceType = 12
)

// String returns the device family name.
func (t DeviceType) String() string {
	switch t {
	case DeviceReceptacle:
		return "receptacle"
	case DeviceAirQuality:
		return "air_quality"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Header is the fixed datagram header.
type Header struct {
	TransactionID uint16
	Source        uint8
	Destination   uint8
	Length        uint16
	Checksum      uint8
}

// ComputeChecksum returns the low byte of the sum of the header bytes that
// precede the checksum.
func (h Header) ComputeChecksum() uint8 {
	sum := uint32(h.TransactionID>>8) + uint32(h.TransactionID&0xFF) +
		uint32(h.Source) + uint32(h.Destination) +
		uint32(h.Length>>8) + uint32(h.Length&0xFF)
	return uint8(sum & 0xFF) //nolint:gosec // masked
}

// Metadata describes the sending device.
type Metadata struct {
	LocalAddress [localAddressSize]byte
	SSID         string
	MAC          string
	DeviceType   DeviceType
	Config       uint8
}

// Message is the register payload.
type Message struct {
	Version   uint16
	Count     uint8
	Offset    uint16
	Registers []uint16
	Checksum  uint16
}

// Frame is one decoded datagram.
type Frame struct {
	Header       Header
	FunctionCode uint8
	Metadata     Metadata
	Message      Message
}

// Decode parses and validates one datagram.
//
// The header checksum and function code are checked before anything else
// is read. Bytes after the message checksum are ignored.
func Decode(buf []byte) (*Frame, error) {
	r := &cursor{buf: buf}
	var f Frame

	f.Header = Header{
		TransactionID: r.u16(),
		Source:        r.u8(),
		Destination:   r.u8(),
		Length:        r.u16(),
		Checksum:      r.u8(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("header: %w", r.err)
	}
	if want := f.Header.ComputeChecksum(); f.Header.Checksum != want {
		return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrBadChecksum, f.Header.Checksum, want)
	}

	f.FunctionCode = r.u8()
	if r.err != nil {
		return nil, fmt.Errorf("function code: %w", r.err)
	}
	if f.FunctionCode != FunctionCode {
		return nil, fmt.Errorf("%w: 0x%02X", ErrBadFunctionCode, f.FunctionCode)
	}

	copy(f.Metadata.LocalAddress[:], r.bytes(localAddressSize))
	ssid := r.bytes(ssidSize)
	mac := r.bytes(macSize)
	f.Metadata.DeviceType = DeviceType(r.u8())
	f.Metadata.Config = r.u8()
	if r.err != nil {
		return nil, fmt.Errorf("metadata: %w", r.err)
	}

	if i := bytes.IndexByte(ssid, 0); i >= 0 {
		ssid = ssid[:i]
	}
	if !utf8.Valid(ssid) {
		return nil, ErrInvalidSSID
	}
	f.Metadata.SSID = string(ssid)
	f.Metadata.MAC = FormatMAC(mac)

	f.Message.Version = r.u16()
	f.Message.Count = r.u8()
	f.Message.Offset = r.u16()
	if r.err == nil {
		f.Message.Registers = make([]uint16, f.Message.Count)
		for i := range f.Message.Registers {
			f.Message.Registers[i] = r.u16()
		}
	}
	f.Message.Checksum = r.u16()
	if r.err != nil {
		return nil, fmt.Errorf("message: %w", r.err)
	}

	return &f, nil
}

// MarshalBinary encodes the frame. The header checksum is computed and the
// register count is taken from Message.Registers.
func (f *Frame) MarshalBinary() ([]byte, error) {
	if len(f.Message.Registers) > 0xFF {
		return nil, fmt.Errorf("%w: %d registers do not fit one frame", ErrRegisterCount, len(f.Message.Registers))
	}
	ssid := []byte(f.Metadata.SSID)
	if len(ssid) > ssidSize {
		return nil, fmt.Errorf("SSID longer than %d bytes", ssidSize)
	}
	mac, err := ParseMAC(f.Metadata.MAC)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, MinFrameSize+2*len(f.Message.Registers))
	h := f.Header
	out = binary.BigEndian.AppendUint16(out, h.TransactionID)
	out = append(out, h.Source, h.Destination)
	out = binary.BigEndian.AppendUint16(out, h.Length)
	out = append(out, h.ComputeChecksum(), FunctionCode)
	out = append(out, f.Metadata.LocalAddress[:]...)
	out = append(out, ssid...)
	out = append(out, make([]byte, ssidSize-len(ssid))...)
	out = append(out, mac[:]...)
	out = append(out, byte(f.Metadata.DeviceType), f.Metadata.Config)
	out = binary.BigEndian.AppendUint16(out, f.Message.Version)
	out = append(out, byte(len(f.Message.Registers)))
	out = binary.BigEndian.AppendUint16(out, f.Message.Offset)
	for _, v := range f.Message.Registers {
		out = binary.BigEndian.AppendUint16(out, v)
	}
	out = binary.BigEndian.AppendUint16(out, f.Message.Checksum)
	return out, nil
}

// FormatMAC renders b as colon-separated uppercase hex.
func FormatMAC(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}

// ParseMAC parses a six-byte MAC written with ':' or '-' separators.
func ParseMAC(s string) ([macSize]byte, error) {
	var out [macSize]byte
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != macSize {
		return out, fmt.Errorf("invalid MAC %q", s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return out, fmt.Errorf("invalid MAC %q", s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return out, fmt.Errorf("invalid MAC %q: %w", s, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// cursor reads big-endian fields and remembers the first short read.
type cursor struct {
	buf []byte
	pos int
	err error
}

func (c *cursor) bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	if c.pos+n > len(c.buf) {
		c.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, len(c.buf)-c.pos)
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}
