package telenode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// demodulate turns the pin trace of one frame back into the bytes a
// receiver sees after the start symbol: count, headers, payload, CRC.
func demodulate(t *testing.T, levels []Level) []byte {
	t.Helper()
	require.Zero(t, len(levels)%askBitsPerSymbol, "partial symbol on the pin")

	symbols := make([]byte, 0, len(levels)/askBitsPerSymbol)
	for i := 0; i < len(levels); i += askBitsPerSymbol {
		var s byte
		for bit := 0; bit < askBitsPerSymbol; bit++ {
			if levels[i+bit] == High {
				s |= 1 << bit
			}
		}
		symbols = append(symbols, s)
	}

	require.GreaterOrEqual(t, len(symbols), askPreambleLen)
	require.Equal(t, askPreamble[:], symbols[:askPreambleLen])
	symbols = symbols[askPreambleLen:]
	require.Zero(t, len(symbols)%2)

	nibble := func(s byte) byte {
		for i, v := range askSymbols {
			if v == s {
				return byte(i)
			}
		}
		t.Fatalf("invalid symbol 0x%02x", s)
		return 0
	}
	out := make([]byte, 0, len(symbols)/2)
	for i := 0; i < len(symbols); i += 2 {
		out = append(out, nibble(symbols[i])<<4|nibble(symbols[i+1]))
	}
	return out
}

func newTestBroadcast(t *testing.T) (*BroadcastLink, *mockPin, *fakeClock) {
	t.Helper()
	pin := &mockPin{}
	clock := &fakeClock{}
	link, err := NewBroadcastLink(ASKConfig{Pin: pin, Clock: clock})
	require.NoError(t, err)
	pin.outs = nil
	return link, pin, clock
}

func TestBroadcastInit(t *testing.T) {
	pin := &mockPin{level: High}
	link, err := NewBroadcastLink(ASKConfig{Pin: pin})
	require.NoError(t, err)

	assert.Equal(t, "output", pin.mode)
	assert.Equal(t, Low, pin.level)
	assert.Equal(t, 500*time.Microsecond, link.bitTime)
	assert.Equal(t, "ASK(Baud=2000)", link.String())

	_, err = NewBroadcastLink(ASKConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewBroadcastLink(ASKConfig{Pin: pin, Baud: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBroadcastTransmitExactPayload(t *testing.T) {
	link, pin, clock := newTestBroadcast(t)
	msg := Message(`{"id":150,"temp":21.37,"bat":3.88,"lvl":88,"cnt":42}`)

	require.NoError(t, link.Transmit(msg))

	// Every bit is followed by one bit time; the carrier is dropped after.
	require.NotEmpty(t, pin.outs)
	assert.Equal(t, Low, pin.outs[len(pin.outs)-1])
	bits := pin.outs[:len(pin.outs)-1]
	assert.Len(t, clock.sleeps, len(bits))
	for _, d := range clock.sleeps {
		require.Equal(t, 500*time.Microsecond, d)
	}

	frame := demodulate(t, bits)
	count := int(frame[0])
	assert.Equal(t, len(msg)+askHeaderLen+3, count)
	require.Len(t, frame, count)

	assert.Equal(t, []byte{0xff, 0xff, 0, 0}, frame[1:1+askHeaderLen])
	payload := frame[1+askHeaderLen : count-2]
	assert.Equal(t, []byte(msg), payload, "payload must be exactly the message, no terminator")

	crc := uint16(0xffff)
	for _, b := range frame[:count-2] {
		crc = crcCCITTUpdate(crc, b)
	}
	crc = ^crc
	assert.Equal(t, byte(crc), frame[count-2])
	assert.Equal(t, byte(crc>>8), frame[count-1])
}

func TestBroadcastConsecutiveFrames(t *testing.T) {
	link, pin, _ := newTestBroadcast(t)

	require.NoError(t, link.Transmit(Message("a")))
	first := demodulate(t, pin.outs[:len(pin.outs)-1])
	pin.outs = nil

	require.NoError(t, link.Transmit(Message("bc")))
	second := demodulate(t, pin.outs[:len(pin.outs)-1])

	assert.Equal(t, byte('a'), first[5])
	assert.Equal(t, []byte("bc"), second[5:7])
	assert.Len(t, second, len(first)+1)
}

func TestBroadcastPinFailureStillCompletes(t *testing.T) {
	link, pin, clock := newTestBroadcast(t)
	pin.err = errMock
	log := &captureLogger{}
	SetLogger(log)
	defer SetLogger(nil)
	msg := Message("{}")

	require.NoError(t, link.Transmit(msg))

	symbols := askPreambleLen + 2*(len(msg)+askHeaderLen+3)
	assert.Len(t, pin.outs, symbols*askBitsPerSymbol+1)
	assert.Len(t, clock.sleeps, symbols*askBitsPerSymbol)
	assert.Equal(t, []string{"WARN ASK TX pin write failed: mock failure"}, log.lines)

	require.NoError(t, link.Transmit(msg))
	assert.Len(t, log.lines, 2, "one warning per frame")
}

func TestBroadcastPayloadTooLong(t *testing.T) {
	link, pin, clock := newTestBroadcast(t)

	err := link.Transmit(make(Message, ASKMaxPayload+1))
	assert.ErrorIs(t, err, ErrPayloadTooLong)
	assert.Empty(t, pin.outs)
	assert.Empty(t, clock.sleeps)

	assert.NoError(t, link.Transmit(make(Message, ASKMaxPayload)))
}

func TestBroadcastClosed(t *testing.T) {
	link, pin, _ := newTestBroadcast(t)

	require.NoError(t, link.Close())
	assert.Equal(t, Low, pin.level)
	assert.ErrorIs(t, link.Transmit(Message("x")), ErrClosed)
}

func TestCRCCCITTCheckValue(t *testing.T) {
	crc := uint16(0xffff)
	for _, b := range []byte("123456789") {
		crc = crcCCITTUpdate(crc, b)
	}
	assert.Equal(t, uint16(0x6f91), crc)
}
