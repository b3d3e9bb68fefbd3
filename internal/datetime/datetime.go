// Package datetime encodes and decodes the msgpack timestamp extension
// (type -1), in its 32-, 64- and 96-bit wire forms, adapted from
// time/time.go's epoch-seconds conversion helpers.
package datetime

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Encode picks the shortest of the three timestamp wire forms that
// losslessly represents t and returns its payload bytes (the extension
// header itself is the caller's concern).
func Encode(t time.Time) []byte {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())

	if nsec == 0 && sec >= 0 && sec <= 0xffffffff {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(sec))
		return buf[:]
	}

	if sec >= 0 && sec < (1<<34) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(nsec)<<34|uint64(sec))
		return buf[:]
	}

	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(nsec))
	binary.BigEndian.PutUint64(buf[4:12], uint64(sec))
	return buf[:]
}

// Decode parses a timestamp extension payload of length 4, 8 or 12 back
// into a time.Time in UTC.
func Decode(payload []byte) (time.Time, error) {
	switch len(payload) {
	case 4:
		sec := binary.BigEndian.Uint32(payload)
		return time.Unix(int64(sec), 0).UTC(), nil
	case 8:
		v := binary.BigEndian.Uint64(payload)
		nsec := int64(v >> 34)
		sec := int64(v & 0x3ffffffff)
		return time.Unix(sec, nsec).UTC(), nil
	case 12:
		nsec := int64(binary.BigEndian.Uint32(payload[0:4]))
		sec := int64(binary.BigEndian.Uint64(payload[4:12]))
		return time.Unix(sec, nsec).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("datetime: unsupported timestamp payload length %d", len(payload))
	}
}
