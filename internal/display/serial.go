package display

import (
	"fmt"

	"go.bug.st/serial"
)

const (
	cmdPrefix    = 0xFE
	cmdClear     = 0x01
	cmdSetCursor = 0x80
)

// rowOffsets are the DDRAM start addresses of each HD44780 row.
var rowOffsets = []byte{0x00, 0x40, 0x14, 0x54}

// SerialDevice drives an HD44780 LCD behind a serial backpack that takes
// 0xFE-prefixed commands.
type SerialDevice struct {
	port serial.Port
}

func OpenSerial(portName string, baud int) (*SerialDevice, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return &SerialDevice{port: port}, nil
}

func (d *SerialDevice) command(b byte) error {
	_, err := d.port.Write([]byte{cmdPrefix, b})
	return err
}

func (d *SerialDevice) SetCursor(col, row int) error {
	if row < 0 || row >= len(rowOffsets) {
		return fmt.Errorf("row %d not supported", row)
	}
	return d.command(cmdSetCursor | (rowOffsets[row] + byte(col)))
}

func (d *SerialDevice) Print(s string) error {
	_, err := d.port.Write([]byte(s))
	return err
}

func (d *SerialDevice) Clear() error {
	return d.command(cmdClear)
}

func (d *SerialDevice) Close() error {
	return d.port.Close()
}
