package gpio

// TriggerReader samples the operator buttons.
type TriggerReader interface {
	// Read returns one pressed flag per configured pin, in configuration
	// order. Buttons are active-low: a raw 0 reads as pressed.
	Read() ([]bool, error)

	// Close releases GPIO resources.
	Close() error
}
