//go:build tinygo && (rp2040 || rp2350)

package telenode

import (
	"fmt"
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART configures RP2 UART id (0 or 1) for the transceiver.
func OpenUART(id int, tx, rx machine.Pin, baud uint32) (Serial, error) {
	var hw *uartx.UART
	switch id {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, fmt.Errorf("unknown UART %d: %w", id, ErrInvalidConfig)
	}
	if err := hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, fmt.Errorf("failed to configure UART%d: %w", id, err)
	}
	return hw, nil
}
