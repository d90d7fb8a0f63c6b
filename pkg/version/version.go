// Package version holds the kin version string.
package version

// Version is the current kin version. Overridden at build time via
// -ldflags "-X github.com/vanderheijden86/kinship/pkg/version.Version=...".
var Version = "0.3.0"
