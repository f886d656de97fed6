package protocol

import (
	"encoding/binary"
	"fmt"
)

// RouteRecord is one advertised route:
// Destination(4) | Distance(1) | Metric(1) | NextHop(4)
type RouteRecord struct {
	Destination Address
	Distance    uint8
	Metric      uint8
	NextHop     Address
}

func (r RouteRecord) AppendBinary(b []byte) []byte {
	b = append(b, r.Destination[:]...)
	b = append(b, r.Distance, r.Metric)
	return append(b, r.NextHop[:]...)
}

// ParseRecords decodes a run of route records. A trailing partial record is an error.
func ParseRecords(data []byte) ([]RouteRecord, error) {
	if len(data)%RecordLength != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(data))
	}
	records := make([]RouteRecord, 0, len(data)/RecordLength)
	for off := 0; off < len(data); off += RecordLength {
		var r RouteRecord
		copy(r.Destination[:], data[off:off+AddrLength])
		r.Distance = data[off+AddrLength]
		r.Metric = data[off+AddrLength+1]
		copy(r.NextHop[:], data[off+AddrLength+2:off+RecordLength])
		records = append(records, r)
	}
	return records, nil
}

// Timestamps travel in the little-endian layout of the microcontroller clock.

func AppendTimestamp(b []byte, ts uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, ts)
}

func ParseTimestamp(data []byte) (uint64, bool) {
	if len(data) < TimestampSize {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[:TimestampSize]), true
}
