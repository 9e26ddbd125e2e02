// Package version holds beanstalkc's build identity, overridable at build
// time via -ldflags so a release binary reports the commit and date it was
// built from instead of the dev defaults below.
package version

var (
	// Version is beanstalkc's semantic version.
	Version = "0.1.0-dev"

	// GitCommit is the commit the binary was built from, if known.
	GitCommit = ""

	// BuildDate is the build timestamp in ISO-8601, if known.
	BuildDate = ""
)

// String renders a one-line identity string for --version output:
// "0.1.0-dev" alone, or "0.1.0-dev (abc123, 2024-01-15)" once ldflags have
// populated GitCommit/BuildDate.
func String() string {
	if GitCommit == "" && BuildDate == "" {
		return Version
	}
	s := Version + " ("
	switch {
	case GitCommit != "" && BuildDate != "":
		s += GitCommit + ", " + BuildDate
	case GitCommit != "":
		s += GitCommit
	default:
		s += BuildDate
	}
	return s + ")"
}
