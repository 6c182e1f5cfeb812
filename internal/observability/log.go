// Package observability centralizes the stdlib logging setup that
// cmd/readerctl applies at startup (and that therefore also governs
// pkg/telemetry's log output), matching the flags and call style the
// teacher repo's cmd/bluetooth-service uses.
package observability

import "log"

// Init configures the shared logger with date/time/microsecond flags, the
// same configuration cmd/bluetooth-service applies at startup.
func Init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
}
