// Package io defines the basic interfaces for feeding physical inputs
// (keys, buttons, switches) into the console's input registers.
// Front-ends implement these and the input package samples them once
// per step when latching the registers.
package io

// PortIn1 defines a 1 bit input such as a single key or button.
type PortIn1 interface {
	// Input returns true if the input is currently held (pressed).
	Input() bool
}

// Port8 defines an 8 bit input port such as a whole gamepad.
type Port8 interface {
	// Input will return the current value being set on the given input port.
	Input() uint8
}

// Buttons8 bundles up to 8 single bit inputs into a Port8. Bit N of the
// result is set when entry N is non-nil and pressed.
type Buttons8 [8]PortIn1

// Input implements the Port8 interface.
func (b Buttons8) Input() uint8 {
	out := uint8(0x00)
	for i, p := range b {
		if p != nil && p.Input() {
			out |= 1 << uint(i)
		}
	}
	return out
}
