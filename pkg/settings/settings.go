// Package settings holds build metadata and per-run options shared by the
// jsonlv command and its packages.
package settings

// CliBinaryName is the name the binary is installed under.
const CliBinaryName = "jsonlv"

// VersionInformation is set at build time through ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-dev",
	BuildTime:    "unknown",
}

// VersionInfo describes the running build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run carries the options of a single invocation.
type Run struct {
	// MinLogLevel is a zap level; -1 enables debug output.
	MinLogLevel int8
	IsQuiet     bool
	NoColor     bool
	Interactive bool
	// MaxDepth bounds record nesting during ingestion. Zero uses the decoder default.
	MaxDepth   int
	ConfigFile string
}

// NewCliParams returns the defaults used by the command line.
func NewCliParams() *Run {
	return &Run{}
}

// LogLevel returns the effective zap level, accounting for quiet mode.
func (r *Run) LogLevel() int8 {
	if r == nil {
		return 0
	}
	if r.IsQuiet && r.MinLogLevel < 2 {
		return 2
	}
	return r.MinLogLevel
}
