package protocol

import "errors"

const (
	PacketLength       = 256                         // max size of a LoRa frame
	HeaderLength       = 17                          // fixed packet header
	DataLength         = PacketLength - HeaderLength // max datagram size, 239
	DatagramHeader     = AddrLength + 1              // destination + type
	MessageLength      = DataLength - DatagramHeader // max message size, 234
	RecordLength       = 2*AddrLength + 2            // one advertised route
	TimestampSize      = 8                           // clock value prepended to advertisements
	MaxRoutesPerPacket = DataLength / RecordLength   // 23

	DefaultTTL = 30
)

// Datagram types used by the stack itself.
const (
	TypeConsole byte = 'i'
)

var (
	ErrShortPacket     = errors.New("packet shorter than header")
	ErrPacketTooLong   = errors.New("packet exceeds maximum length")
	ErrLengthMismatch  = errors.New("packet length field does not match received length")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMalformedRecord = errors.New("advertisement payload is not a whole number of route records")
)
