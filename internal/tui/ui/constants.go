// Package ui provides shared styles, key bindings and messages for the
// wizard TUI.
package ui

// Default dimensions.
const (
	// DefaultWidth is the width used before the first resize message.
	DefaultWidth = 80

	// DefaultHeight is the height used before the first resize message.
	DefaultHeight = 24

	// DefaultInputWidth is the width of a text input.
	DefaultInputWidth = 48

	// DefaultCharLimit caps the length of typed values.
	DefaultCharLimit = 256

	// MaxSuggestions is how many lookup options an input offers.
	MaxSuggestions = 200
)
