//go:build tinygo && !rp2040 && !rp2350

package telenode

import (
	"fmt"
	"machine"
)

// OpenUART configures the board's default UART for the transceiver.
// Only id 0 exists on these targets.
func OpenUART(id int, tx, rx machine.Pin, baud uint32) (Serial, error) {
	if id != 0 {
		return nil, fmt.Errorf("only UART0 is available: %w", ErrInvalidConfig)
	}
	uart := machine.DefaultUART
	uart.Configure(machine.UARTConfig{BaudRate: baud, TX: tx, RX: rx})
	return uart, nil
}
