// Package processor runs the waldl commands. It builds a session from the
// loaded settings and drives it either headless (search and download
// subcommands) or through the GUI.
package processor
