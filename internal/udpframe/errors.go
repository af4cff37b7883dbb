package udpframe

import "errors"

// Domain errors for frame decoding.
var (
	// ErrTruncated is returned when the datagram ends before a field.
	ErrTruncated = errors.New("udpframe: truncated datagram")

	// ErrBadChecksum is returned when the header checksum does not match.
	ErrBadChecksum = errors.New("udpframe: header checksum mismatch")

	// ErrBadFunctionCode is returned for any function code other than 0x24.
	ErrBadFunctionCode = errors.New("udpframe: unsupported function code")

	// ErrInvalidSSID is returned when the SSID is not valid UTF-8.
	ErrInvalidSSID = errors.New("udpframe: SSID is not valid UTF-8")

	// ErrRegisterCount is returned when a device payload has the wrong
	// number of registers.
	ErrRegisterCount = errors.New("udpframe: unexpected register count")

	// ErrUnknownDeviceType is returned when dispatching an unsupported
	// device type.
	ErrUnknownDeviceType = errors.New("udpframe: unknown device type")
)
