package version

import (
	"runtime/debug"
)

// Version is the semantic version (set by ldflags during build)
var Version = "dev"

// GetVersion returns the version, falling back to build info if the
// ldflags version is not set
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}
