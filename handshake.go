package telenode

import (
	"fmt"
	"sync"
	"time"
)

// LinkState is the position of a HandshakeLink in its wake/send/sleep
// sequence.
type LinkState uint8

const (
	StateIdle LinkState = iota
	StateAwaitingWakeAck
	StateTransmitting
	StateAwaitingSleepAck
)

func (s LinkState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingWakeAck:
		return "awaiting-wake-ack"
	case StateTransmitting:
		return "transmitting"
	case StateAwaitingSleepAck:
		return "awaiting-sleep-ack"
	default:
		return "unknown"
	}
}

type HandshakeConfig struct {
	// Serial is the UART connected to the transceiver.
	Serial Serial
	// CommandPin selects the transceiver's command mode (SET on HC-12,
	// M0/M1 on E22 modules).
	CommandPin Pin
	// CommandLevel is the level that puts the module in command mode.
	// Defaults to Low.
	CommandLevel Level
	// Clock times the fixed handshake delays.
	// Defaults to SystemClock if not provided.
	Clock Clock
	// WakeCommand is written verbatim to leave sleep.
	// Defaults to "AT".
	WakeCommand string
	// SleepCommand is written verbatim to enter sleep.
	// Defaults to "AT+SLEEP".
	SleepCommand string
	// SettleDelay follows every change of the command pin.
	// Defaults to 40ms.
	SettleDelay time.Duration
	// ResponsePolls and ResponsePollInterval bound the window in which
	// command responses are drained.
	// Default to 10 polls of 10ms.
	ResponsePolls        int
	ResponsePollInterval time.Duration
	// PropagationDelay lets the module push the record out over the air
	// before it is put back to sleep.
	// Defaults to 100ms.
	PropagationDelay time.Duration
}

// HandshakeLink drives a serial radio transceiver that sleeps between
// records. Every transmission is a wake command bout, the record terminated
// by a line break, then a sleep command bout. Responses are drained to the
// debug log and never interpreted; each step waits a fixed time and moves
// on whatever the module did.
type HandshakeLink struct {
	config  HandshakeConfig
	mu      sync.Mutex
	state   LinkState
	closed  bool
	scratch []byte
	rx      [64]byte
}

// NewHandshakeLink applies defaults and leaves the command pin de-asserted.
func NewHandshakeLink(c HandshakeConfig) (*HandshakeLink, error) {
	if c.Serial == nil {
		return nil, fmt.Errorf("transceiver serial not configured: %w", ErrInvalidConfig)
	}
	if c.CommandPin == nil {
		return nil, fmt.Errorf("transceiver command pin not configured: %w", ErrInvalidConfig)
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	if c.WakeCommand == "" {
		c.WakeCommand = "AT"
	}
	if c.SleepCommand == "" {
		c.SleepCommand = "AT+SLEEP"
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 40 * time.Millisecond
	}
	if c.ResponsePolls <= 0 {
		c.ResponsePolls = 10
	}
	if c.ResponsePollInterval == 0 {
		c.ResponsePollInterval = 10 * time.Millisecond
	}
	if c.PropagationDelay == 0 {
		c.PropagationDelay = 100 * time.Millisecond
	}

	if err := c.CommandPin.Out(!c.CommandLevel); err != nil {
		return nil, fmt.Errorf("failed to configure command pin: %w", err)
	}
	globalLogger.Info("Transceiver link ready.")

	return &HandshakeLink{
		config:  c,
		scratch: make([]byte, 0, 96),
	}, nil
}

func (l *HandshakeLink) String() string {
	return "Transceiver(Wake=" + l.config.WakeCommand + ", Sleep=" + l.config.SleepCommand + ")"
}

// State reports where the link is in its sequence.
func (l *HandshakeLink) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Transmit wakes the module, writes m followed by '\n', waits for it to go
// out and puts the module back to sleep.
func (l *HandshakeLink) Transmit(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	l.state = StateAwaitingWakeAck
	l.command(l.config.WakeCommand)

	l.state = StateTransmitting
	l.scratch = append(append(l.scratch[:0], m...), '\n')
	l.write(l.scratch)
	l.config.Clock.Sleep(l.config.PropagationDelay)

	l.state = StateAwaitingSleepAck
	l.command(l.config.SleepCommand)

	l.state = StateIdle
	return nil
}

// Close puts the module to sleep one last time and releases command mode.
func (l *HandshakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	l.command(l.config.SleepCommand)
	return nil
}

// command runs one bout: enter command mode, send the token, drain
// whatever the module answers, leave command mode.
func (l *HandshakeLink) command(token string) {
	l.setCommandMode(true)
	l.config.Clock.Sleep(l.config.SettleDelay)

	l.write([]byte(token))
	l.drain()

	l.setCommandMode(false)
	l.config.Clock.Sleep(l.config.SettleDelay)
}

func (l *HandshakeLink) setCommandMode(on bool) {
	level := l.config.CommandLevel
	if !on {
		level = !level
	}
	if err := l.config.CommandPin.Out(level); err != nil {
		globalLogger.Warn("Failed to set command pin: " + err.Error())
	}
}

func (l *HandshakeLink) write(p []byte) {
	if _, err := l.config.Serial.Write(p); err != nil {
		globalLogger.Warn("Transceiver write failed: " + err.Error())
	}
}

// drain polls a fixed number of times and forwards any response bytes to
// the debug log. Each poll reads at most one rx buffer, so a module that
// keeps talking cannot stretch the window.
func (l *HandshakeLink) drain() {
	for i := 0; i < l.config.ResponsePolls; i++ {
		l.config.Clock.Sleep(l.config.ResponsePollInterval)
		if l.config.Serial.Buffered() == 0 {
			continue
		}
		n, _ := l.config.Serial.Read(l.rx[:])
		if n > 0 {
			globalLogger.Debug("Transceiver: " + string(l.rx[:n]))
		}
	}
}
