package telenode

// RadioLink transmits one encoded record. Transmit blocks until the link
// layer has finished sending locally; nothing is known about delivery.
// The returned error only reports conditions detected before anything
// was sent, such as an oversized payload or a closed link.
type RadioLink interface {
	Transmit(m Message) error
}
