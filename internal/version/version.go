package version

// Version is overridden at build time with
// -ldflags "-X github.com/bnema/mirror-launcher/internal/version.Version=v1.2.3".
var Version = "0.0.0-dev"
