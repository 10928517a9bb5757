// Package version holds the build version, set with -ldflags at release time.
package version

// Version is overwritten by the build:
//
//	go build -ldflags "-X github.com/ndewijer/Kinvo-Analytics-Backend/internal/version.Version=1.2.0"
var Version = "dev"
