// Package collect polls Modbus/TCP field devices and turns their registers
// into reading.Records.
//
// Power meters are grouped into ConnectionBatches: every channel that shares
// a (host, port, unit id, export-sum flag) key is read through one session
// per cycle. Batches run concurrently; reads inside a batch share the
// session under a mutex because the protocol allows one outstanding request
// per connection.
//
// Failure isolation:
//
//	read error     → that field is null
//	connect error  → that batch contributes no records
//	batch deadline → that batch contributes no records
//	missing address in the memory map → GroupBatches fails, the cycle is skipped
//
// Gas and heat meters use MeterCollector, which opens one session per meter
// and applies a fixed register layout.
package collect
