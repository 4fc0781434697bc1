package telenode

import "strconv"

// DeviceDisconnectedC is the reading reported for a missing or faulted
// probe. It is carried through the record like any other temperature.
const DeviceDisconnectedC float32 = -127

// TemperatureReader obtains a single reading from one probe on the bus.
type TemperatureReader struct {
	probe Thermometer
	index int
}

// NewTemperatureReader returns a reader for the probe at index.
func NewTemperatureReader(probe Thermometer, index int) *TemperatureReader {
	return &TemperatureReader{probe: probe, index: index}
}

// Read triggers a conversion on every probe and returns the result of the
// configured one.
func (r *TemperatureReader) Read() float32 {
	r.probe.RequestTemperatures()
	t := r.probe.TempCByIndex(r.index)
	if t == DeviceDisconnectedC {
		globalLogger.Warn("Temperature probe " + strconv.Itoa(r.index) + " disconnected")
	}
	return t
}
