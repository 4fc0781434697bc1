package telenode

import (
	"errors"
	"strings"
	"time"
)

// --- Mocks ---

type trace struct {
	events []string
}

func (t *trace) add(e string) {
	if t != nil {
		t.events = append(t.events, e)
	}
}

type mockPin struct {
	name  string
	level Level
	mode  string
	pull  Pull
	outs  []Level
	err   error
	trace *trace
}

func (m *mockPin) Out(l Level) error {
	m.mode = "output"
	m.level = l
	m.outs = append(m.outs, l)
	if l == High {
		m.trace.add(m.name + ":high")
	} else {
		m.trace.add(m.name + ":low")
	}
	return m.err
}

func (m *mockPin) In(pull Pull) error {
	m.mode = "input"
	m.pull = pull
	return nil
}

func (m *mockPin) Read() Level { return m.level }

type mockADC struct {
	values []uint16
	calls  int
}

func (m *mockADC) Get() uint16 {
	m.calls++
	if len(m.values) == 0 {
		return 0
	}
	v := m.values[0]
	if len(m.values) > 1 {
		m.values = m.values[1:]
	}
	return v
}

type mockThermometer struct {
	temps    []float32
	requests int
	trace    *trace
}

func (m *mockThermometer) RequestTemperatures() {
	m.requests++
	m.trace.add("probe:request")
}

func (m *mockThermometer) TempCByIndex(index int) float32 {
	if index < 0 || index >= len(m.temps) {
		return DeviceDisconnectedC
	}
	return m.temps[index]
}

type mockSerial struct {
	tx       strings.Builder
	rx       []byte
	replies  map[string]string
	writeErr error
	trace    *trace
}

func (m *mockSerial) Write(p []byte) (int, error) {
	m.trace.add("tx:" + string(p))
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.tx.Write(p)
	if r, ok := m.replies[string(p)]; ok {
		m.rx = append(m.rx, r...)
	}
	return len(p), nil
}

func (m *mockSerial) Buffered() int { return len(m.rx) }

func (m *mockSerial) Read(p []byte) (int, error) {
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

// chattySerial always has more bytes waiting.
type chattySerial struct {
	reads int
}

func (s *chattySerial) Write(p []byte) (int, error) { return len(p), nil }
func (s *chattySerial) Buffered() int { return 1 }

func (s *chattySerial) Read(p []byte) (int, error) {
	s.reads++
	for i := range p {
		p[i] = '.'
	}
	return len(p), nil
}

type fakeClock struct {
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(d)
	}
}

func (c *fakeClock) total() time.Duration {
	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}
	return sum
}

type fakeSleeper struct {
	calls   []time.Duration
	onSleep func()
}

func (s *fakeSleeper) PowerDown(d time.Duration) {
	s.calls = append(s.calls, d)
	if s.onSleep != nil {
		s.onSleep()
	}
}

type mockRadio struct {
	sent []Message
	err  error
}

func (m *mockRadio) Transmit(msg Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

var errMock = errors.New("mock failure")

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Debug(msg string) { l.lines = append(l.lines, "DEBUG "+msg) }
func (l *captureLogger) Info(msg string)  { l.lines = append(l.lines, "INFO "+msg) }
func (l *captureLogger) Warn(msg string)  { l.lines = append(l.lines, "WARN "+msg) }
func (l *captureLogger) Error(msg string) { l.lines = append(l.lines, "ERROR "+msg) }

func (l *captureLogger) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}
