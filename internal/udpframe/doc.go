// Package udpframe decodes the binary datagrams pushed by air-quality
// sensors and smart receptacles.
//
// Wire layout (all multi-byte fields big-endian):
//
//	offset size field
//	     0    2 transaction id
//	     2    1 source
//	     3    1 destination
//	     4    2 payload length (not validated)
//	     6    1 header checksum: low byte of the sum of bytes 0..5
//	     7    1 function code, must be 0x24
//	     8    6 local address
//	    14   32 SSID, NUL padded UTF-8
//	    46    6 device MAC
//	    52    1 device type (5 receptacle, 12 air quality)
//	    53    1 config
//	    54    2 message version
//	    56    1 register count N
//	    57    2 register offset
//	    59   2N registers
//	 59+2N    2 message checksum (not verified)
//
// Decode performs no I/O. A rejected datagram returns an error and leaves
// the caller free to continue with the next one.
package udpframe
