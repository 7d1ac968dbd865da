package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Not initialized or invalid configuration
	ExitNotFound    = 3 // Paper or platform lookup failure
	ExitFetchError  = 4 // Every requested platform fetch failed
)
