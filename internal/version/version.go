// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Prometheus metrics endpoint, gocron watch mode, altitude traces in Sky view
// 0.2.0 - Moon apsides and next new/full moon, JSON snapshot export, viper config
// 0.1.0 - Initial release: Sun/Moon/Earth snapshots, rise/set solver, TUI dashboard
