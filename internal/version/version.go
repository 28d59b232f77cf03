// Package version identifies this build.
package version

import "fmt"

// Version is the moof-go release version. Overridden at build time:
//
//	go build -ldflags "-X github.com/openmoof/moof-go/internal/version.Version=v0.3.0"
var Version = "dev"

// UserAgent returns the string tools report when identifying themselves.
func UserAgent(tool string) string {
	return fmt.Sprintf("%s/%s", tool, Version)
}
