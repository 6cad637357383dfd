// Package cli provides command-line interface setup and configuration
// for the waldl application. It handles flag parsing, command creation,
// configuration management using cobra and viper, and the headless
// output of the search and download commands.
package cli
