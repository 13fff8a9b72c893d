// Package ui renders screenkit's terminal output: the registered screen
// table and status lines printed by the screenkit command.
package ui
