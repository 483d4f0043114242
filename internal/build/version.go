// Package build carries version information stamped in with -ldflags
package build

// Version is set with -ldflags "-X github.com/drummonds/pdf2png/internal/build.Version=..."
var Version = "dev"
