// Package serial reads framed half-pad packets off the pads' UARTs. Framing
// and resync live here; callers only ever see whole packets.
package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	goserial "github.com/goburrow/serial"
)

// Wire format of one half-pad report: a fixed two-byte header, the button
// mask, then the two raw ADC words, all little-endian.
const (
	frameSize   = 7
	headerByte0 = 0xAA
	headerByte1 = 0x55

	baudRate    = 19200
	readTimeout = 20 * time.Millisecond
)

// ErrWouldBlock reports that no complete frame is buffered right now.
var ErrWouldBlock = errors.New("serial: would block")

// Packet is one decoded half-pad report. The mask carries no side
// information; the side is implied by which port produced it.
type Packet struct {
	Header  uint16
	Buttons uint8
	X       uint16
	Y       uint16
}

// Port is one open half-pad UART.
type Port struct {
	port goserial.Port
	path string
	buf  frameBuffer
	tmp  [64]byte
}

// Open opens a half-pad UART at the fixed pad baud rate (19200 8N1).
func Open(path string) (*Port, error) {
	p, err := goserial.Open(&goserial.Config{
		Address:  path,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", path, err)
	}
	return &Port{port: p, path: path}, nil
}

// ReadPacket returns the next buffered frame. It returns ErrWouldBlock when
// the line is healthy but no complete frame arrived within the read timeout,
// and the underlying error when the transport died.
func (p *Port) ReadPacket() (Packet, error) {
	for {
		if pkt, ok := p.buf.next(); ok {
			return pkt, nil
		}
		n, err := p.port.Read(p.tmp[:])
		if n > 0 {
			p.buf.feed(p.tmp[:n])
			continue
		}
		if err != nil {
			if errors.Is(err, goserial.ErrTimeout) {
				return Packet{}, ErrWouldBlock
			}
			return Packet{}, fmt.Errorf("serial: read %s: %w", p.path, err)
		}
	}
}

func (p *Port) Close() error {
	return p.port.Close()
}

func (p *Port) Path() string {
	return p.path
}

// frameBuffer accumulates raw bytes and scans them for aligned frames,
// discarding garbage up to the next header on desync.
type frameBuffer struct {
	data []byte
}

func (b *frameBuffer) feed(chunk []byte) {
	b.data = append(b.data, chunk...)
}

func (b *frameBuffer) next() (Packet, bool) {
	b.resync()
	if len(b.data) < frameSize {
		return Packet{}, false
	}
	frame := b.data[:frameSize]
	pkt := Packet{
		Header:  binary.LittleEndian.Uint16(frame[0:2]),
		Buttons: frame[2],
		X:       binary.LittleEndian.Uint16(frame[3:5]),
		Y:       binary.LittleEndian.Uint16(frame[5:7]),
	}
	b.data = b.data[frameSize:]
	return pkt, true
}

// resync drops bytes until the buffer starts with the frame header.
func (b *frameBuffer) resync() {
	for i := 0; i < len(b.data); i++ {
		if b.data[i] != headerByte0 {
			continue
		}
		if i+1 == len(b.data) || b.data[i+1] == headerByte1 {
			if i > 0 {
				b.data = b.data[i:]
			}
			return
		}
	}
	b.data = b.data[:0]
}
