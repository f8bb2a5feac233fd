// Package viz renders a running orbiter in the terminal.
//
// The live observer is a Bubble Tea program:
//
//   - [Model]: the figure, its trail and the current position on a braille
//     [Canvas], next to a panel of inputs, channel bindings and the readout
//   - [Forward]: a controller listener that feeds engine logs to the program
//   - Theme selection with 4 built-in color schemes
//
// Bindings shown in the panel only change when the engine confirms them
// through a log record.
//
// # Key Bindings
//
//	Tab   - Switch between inputs and bindings
//	↑↓    - Select a row
//	←→    - Adjust an input or cycle a channel's target
//	C     - Clear the selected binding
//	B     - Take the automation bus offline or back
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
