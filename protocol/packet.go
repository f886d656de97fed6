package protocol

import "fmt"

// Packet layout (17 byte header, big-endian field order):
// TTL(1) | TotalLength(1) | Sender(4) | Receiver(4) | Sequence(1) | Source(4) | HopCount(1) | Metric(1) | Data(0-239)
//
// Data is a Datagram for traffic and a list of route records for advertisements.

type Datagram struct {
	Destination Address
	Type        byte
	Message     []byte
}

// Len is the encoded size of the datagram.
func (d Datagram) Len() int {
	return DatagramHeader + len(d.Message)
}

func (d Datagram) MarshalBinary() ([]byte, error) {
	if len(d.Message) > MessageLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLong, len(d.Message), MessageLength)
	}
	buf := make([]byte, 0, d.Len())
	buf = append(buf, d.Destination[:]...)
	buf = append(buf, d.Type)
	buf = append(buf, d.Message...)
	return buf, nil
}

// ParseDatagram reads whatever part of a datagram is present; missing header
// bytes stay zero.
func ParseDatagram(data []byte) Datagram {
	var d Datagram
	copy(d.Destination[:], data)
	if len(data) > AddrLength {
		d.Type = data[AddrLength]
	}
	if len(data) > DatagramHeader {
		d.Message = append([]byte(nil), data[DatagramHeader:]...)
	}
	return d
}

type Packet struct {
	TTL uint8
	// TotalLength is header plus data. The wire carries it in one byte, so a
	// full 256 byte frame encodes as 0; decoders rely on the received length.
	TotalLength int
	Sender      Address // previous hop
	Receiver    Address // next hop
	Sequence    uint8   // sender's transmit counter
	Source      Address // originator
	HopCount    uint8
	Metric      uint8 // quality of the sender -> receiver link
	Data        []byte
}

// Empty reports whether p is the zero-length "nothing to read" packet.
func (p Packet) Empty() bool {
	return p.TotalLength == 0
}

func (p Packet) Datagram() Datagram {
	return ParseDatagram(p.Data)
}

func (p Packet) MarshalBinary() ([]byte, error) {
	if len(p.Data) > DataLength {
		return nil, fmt.Errorf("%w: data %d > %d", ErrPacketTooLong, len(p.Data), DataLength)
	}
	return p.AppendBinary(make([]byte, 0, HeaderLength+len(p.Data))), nil
}

// AppendBinary appends the wire form of p to b. It does not check the data length.
func (p Packet) AppendBinary(b []byte) []byte {
	b = append(b, p.TTL, byte(HeaderLength+len(p.Data)))
	b = append(b, p.Sender[:]...)
	b = append(b, p.Receiver[:]...)
	b = append(b, p.Sequence)
	b = append(b, p.Source[:]...)
	b = append(b, p.HopCount, p.Metric)
	return append(b, p.Data...)
}

// UnmarshalPacket decodes a frame of exactly the length the radio reported.
func UnmarshalPacket(frame []byte) (Packet, error) {
	var p Packet
	if len(frame) < HeaderLength {
		return p, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(frame))
	}
	if len(frame) > PacketLength {
		return p, fmt.Errorf("%w: %d bytes", ErrPacketTooLong, len(frame))
	}
	if frame[1] != byte(len(frame)) {
		return p, fmt.Errorf("%w: field %d, received %d", ErrLengthMismatch, frame[1], len(frame))
	}
	p.TTL = frame[0]
	p.TotalLength = len(frame)
	copy(p.Sender[:], frame[2:6])
	copy(p.Receiver[:], frame[6:10])
	p.Sequence = frame[10]
	copy(p.Source[:], frame[11:15])
	p.HopCount = frame[15]
	p.Metric = frame[16]
	p.Data = append([]byte(nil), frame[HeaderLength:]...)
	return p, nil
}
