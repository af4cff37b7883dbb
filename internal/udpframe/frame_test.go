package udpframe

import (
	"errors"
	"testing"
)

func testFrame(deviceType DeviceType, nregs int) *Frame {
	regs := make([]uint16, nregs)
	for i := range regs {
		regs[i] = uint16(i)
	}
	return &Frame{
		Header: Header{TransactionID: 0x1234, Source: 0x01, Destination: 0xFE, Length: 0x00A3},
		Metadata: Metadata{
			LocalAddress: [6]byte{192, 168, 0, 10, 0x13, 0x8D},
			SSID:         "plant-floor",
			MAC:          "A4:CF:12:0B:9E:01",
			DeviceType:   deviceType,
			Config:       0x03,
		},
		Message: Message{Version: 2, Offset: 0, Registers: regs, Checksum: 0xBEEF},
	}
}

func mustMarshal(t *testing.T, f *Frame) []byte {
	t.Helper()
	b, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	return b
}

func TestDecode(t *testing.T) {
	buf := mustMarshal(t, testFrame(DeviceAirQuality, RegisterBlockSize))
	if len(buf) != MinFrameSize+2*RegisterBlockSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), MinFrameSize+2*RegisterBlockSize)
	}

	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if f.Header.TransactionID != 0x1234 || f.Header.Source != 1 || f.Header.Destination != 0xFE || f.Header.Length != 0xA3 {
		t.Errorf("Header = %+v", f.Header)
	}
	// 0x12 + 0x34 + 0x01 + 0xFE + 0x00 + 0xA3 = 0x1E8
	if f.Header.Checksum != 0xE8 {
		t.Errorf("Checksum = 0x%02X, want 0xE8", f.Header.Checksum)
	}
	if f.FunctionCode != FunctionCode {
		t.Errorf("FunctionCode = 0x%02X", f.FunctionCode)
	}
	if f.Metadata.SSID != "plant-floor" {
		t.Errorf("SSID = %q", f.Metadata.SSID)
	}
	if f.Metadata.MAC != "A4:CF:12:0B:9E:01" {
		t.Errorf("MAC = %q", f.Metadata.MAC)
	}
	if f.Metadata.DeviceType != DeviceAirQuality || f.Metadata.Config != 3 {
		t.Errorf("Metadata = %+v", f.Metadata)
	}
	if f.Metadata.LocalAddress != [6]byte{192, 168, 0, 10, 0x13, 0x8D} {
		t.Errorf("LocalAddress = %v", f.Metadata.LocalAddress)
	}
	if f.Message.Version != 2 || int(f.Message.Count) != RegisterBlockSize || f.Message.Checksum != 0xBEEF {
		t.Errorf("Message = version %d count %d checksum 0x%04X", f.Message.Version, f.Message.Count, f.Message.Checksum)
	}
	if len(f.Message.Registers) != RegisterBlockSize || f.Message.Registers[63] != 63 {
		t.Errorf("Registers decoded incorrectly")
	}
}

func TestDecodeRejectsAnyHeaderMutation(t *testing.T) {
	good := mustMarshal(t, testFrame(DeviceReceptacle, RegisterBlockSize))

	for i := 0; i < headerSize; i++ {
		for _, delta := range []byte{0x01, 0x80, 0xFF} {
			buf := append([]byte(nil), good...)
			buf[i] += delta

			_, err := Decode(buf)
			if !errors.Is(err, ErrBadChecksum) {
				t.Errorf("byte %d += 0x%02X: error = %v, want ErrBadChecksum", i, delta, err)
			}
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	good := mustMarshal(t, testFrame(DeviceAirQuality, RegisterBlockSize))

	badFunction := append([]byte(nil), good...)
	badFunction[headerSize] = 0x23

	badSSID := append([]byte(nil), good...)
	badSSID[14] = 0xFF

	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncated},
		{"header only", good[:headerSize], ErrTruncated},
		{"cut inside metadata", good[:30], ErrTruncated},
		{"cut inside registers", good[:MinFrameSize+10], ErrTruncated},
		{"missing message checksum", good[:len(good)-1], ErrTruncated},
		{"bad function code", badFunction, ErrBadFunctionCode},
		{"invalid SSID", badSSID, ErrInvalidSSID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if f != nil {
				t.Error("Decode() returned a frame on error")
			}
		})
	}
}

func TestDecodeSSIDStopsAtNUL(t *testing.T) {
	buf := mustMarshal(t, testFrame(DeviceAirQuality, 0))
	// Garbage after the terminator is ignored.
	buf[14+len("plant-floor")+1] = 0xFF

	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Metadata.SSID != "plant-floor" {
		t.Errorf("SSID = %q, want plant-floor", f.Metadata.SSID)
	}
}

func TestFormatAndParseMAC(t *testing.T) {
	b := []byte{0x0a, 0xbc, 0x00, 0xff, 0x10, 0x9e}
	s := FormatMAC(b)
	if s != "0A:BC:00:FF:10:9E" {
		t.Errorf("FormatMAC() = %q", s)
	}

	got, err := ParseMAC("0a-bc-00-ff-10-9e")
	if err != nil {
		t.Fatalf("ParseMAC() error = %v", err)
	}
	if string(got[:]) != string(b) {
		t.Errorf("ParseMAC() = %X, want %X", got, b)
	}

	for _, bad := range []string{"", "0A:BC", "0A:BC:00:FF:10:XZ", "0A:BC:00:FF:10:9E:11", "A:BC:00:FF:10:9E"} {
		if _, err := ParseMAC(bad); err == nil {
			t.Errorf("ParseMAC(%q) error = nil", bad)
		}
	}
}
