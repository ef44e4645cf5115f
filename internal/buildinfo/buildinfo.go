// Package buildinfo carries the version stamped in at build time via
// -ldflags "-X castbot.app/castbot/internal/buildinfo.Version=...".
package buildinfo

var Version = "dev"
