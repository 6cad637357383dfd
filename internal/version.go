package internal

// Version is the application version reported by --version and the window title.
const Version = "0.3.1"
