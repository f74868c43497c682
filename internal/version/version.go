package version

import (
	"strconv"
	"strings"
)

// Version contains the application version information.
// Release builds override it via ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/lorasensor/internal/version.Version=0.3.0".
var Version = "0.2.0"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Encoded returns the version as major*10000 + minor*100 + patch, the form
// reported in the registration message. Unparseable parts count as zero.
func Encoded() int {
	return Encode(Version)
}

// Encode converts a dotted version string such as "v1.2.3" or "0.2.0-rc1".
func Encode(v string) int {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.SplitN(v, ".", 3)
	weights := []int{10000, 100, 1}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			continue
		}
		total += n * weights[i]
	}
	return total
}
