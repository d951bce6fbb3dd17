// Package state keeps per-user conversation state for multi-step dialogs,
// such as waiting for the word after a menu button press.
package state
