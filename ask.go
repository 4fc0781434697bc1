package telenode

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ASKMaxPayload is the largest record a single ASK frame can carry.
const ASKMaxPayload = 60

const (
	askHeaderLen     = 4
	askBroadcast     = 0xff
	askPreambleLen   = 8
	askMaxSymbols    = askPreambleLen + 2*(1+askHeaderLen+ASKMaxPayload+2)
	askBitsPerSymbol = 6
)

// askSymbols maps each nibble to its 6-bit line symbol.
var askSymbols = [16]byte{
	0x0d, 0x0e, 0x13, 0x15, 0x16, 0x19, 0x1a, 0x1c,
	0x23, 0x25, 0x26, 0x29, 0x2a, 0x2c, 0x32, 0x34,
}

// askPreamble is the training sequence followed by the 12-bit start symbol.
var askPreamble = [askPreambleLen]byte{0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x38, 0x2c}

type ASKConfig struct {
	// Pin drives the data input of the transmitter.
	Pin Pin
	// Baud is the bit rate on air.
	// Defaults to 2000 if not provided.
	Baud int
	// Clock times each bit.
	// Defaults to SystemClock if not provided.
	Clock Clock
}

// BroadcastLink sends records as one-way amplitude-shift keyed frames,
// compatible with RadioHead RH_ASK receivers. There is no acknowledgement
// and no retry.
type BroadcastLink struct {
	config  ASKConfig
	bitTime time.Duration
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
	symbols [askMaxSymbols]byte
}

// NewBroadcastLink applies defaults, drives the pin low and returns the link.
func NewBroadcastLink(c ASKConfig) (*BroadcastLink, error) {
	if c.Pin == nil {
		return nil, fmt.Errorf("ASK TX pin not configured: %w", ErrInvalidConfig)
	}
	if c.Baud == 0 {
		c.Baud = 2000
	}
	if c.Baud < 0 {
		return nil, fmt.Errorf("baud must be positive: %w", ErrInvalidConfig)
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	if err := c.Pin.Out(Low); err != nil {
		return nil, fmt.Errorf("failed to configure ASK TX pin: %w", err)
	}
	globalLogger.Info("ASK transmitter ready at " + strconv.Itoa(c.Baud) + " baud")
	return &BroadcastLink{
		config:  c,
		bitTime: time.Second / time.Duration(c.Baud),
	}, nil
}

func (l *BroadcastLink) String() string {
	return "ASK(Baud=" + strconv.Itoa(l.config.Baud) + ")"
}

// Transmit sends exactly len(m) payload bytes in one frame and returns once
// the last bit has left the pin.
func (l *BroadcastLink) Transmit(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if len(m) > ASKMaxPayload {
		return fmt.Errorf("%d bytes over ASK limit of %d: %w", len(m), ASKMaxPayload, ErrPayloadTooLong)
	}

	l.send(m)
	l.waitPacketSent()
	return nil
}

// Close waits for an outstanding frame and leaves the carrier off.
func (l *BroadcastLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waitPacketSent()
	l.closed = true
	return l.config.Pin.Out(Low)
}

// send encodes p into the symbol buffer and starts clocking it out.
func (l *BroadcastLink) send(p []byte) {
	l.waitPacketSent()
	n := l.encodeFrame(p)
	done := make(chan struct{})
	l.done = done
	go l.clockOut(l.symbols[:n], done)
}

func (l *BroadcastLink) waitPacketSent() {
	if l.done == nil {
		return
	}
	<-l.done
	l.done = nil
}

// clockOut writes each 6-bit symbol LSB first, one bit per bit time.
func (l *BroadcastLink) clockOut(symbols []byte, done chan<- struct{}) {
	defer close(done)
	var failed bool
	out := func(level Level) {
		if err := l.config.Pin.Out(level); err != nil && !failed {
			failed = true
			globalLogger.Warn("ASK TX pin write failed: " + err.Error())
		}
	}
	for _, s := range symbols {
		for bit := 0; bit < askBitsPerSymbol; bit++ {
			out(Level(s&(1<<bit) != 0))
			l.config.Clock.Sleep(l.bitTime)
		}
	}
	out(Low)
}

// encodeFrame fills l.symbols with preamble, length, broadcast headers,
// payload and the inverted CRC, and returns the number of symbols.
func (l *BroadcastLink) encodeFrame(p []byte) int {
	buf := l.symbols[:]
	i := copy(buf, askPreamble[:])

	put := func(b byte) {
		buf[i] = askSymbols[b>>4]
		buf[i+1] = askSymbols[b&0x0f]
		i += 2
	}

	crc := uint16(0xffff)
	count := byte(len(p) + askHeaderLen + 3)
	crc = crcCCITTUpdate(crc, count)
	put(count)

	// to, from, id, flags
	for _, h := range [askHeaderLen]byte{askBroadcast, askBroadcast, 0, 0} {
		crc = crcCCITTUpdate(crc, h)
		put(h)
	}
	for _, b := range p {
		crc = crcCCITTUpdate(crc, b)
		put(b)
	}

	crc = ^crc
	put(byte(crc))
	put(byte(crc >> 8))
	return i
}

// crcCCITTUpdate is the AVR libc _crc_ccitt_update (reflected 0x8408).
func crcCCITTUpdate(crc uint16, data byte) uint16 {
	data ^= byte(crc)
	data ^= data << 4
	return (uint16(data)<<8 | crc>>8) ^ uint16(data>>4) ^ uint16(data)<<3
}
