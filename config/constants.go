package config

import "github.com/brettbedarf/webfm/internal/util"

// Bytes per MB
const MB = 1024 * 1024

// ImpersonationMode selects how filesystem work is attributed to the
// authenticated OS user.
type ImpersonationMode = string

const (
	// ThreadImpersonation switches the filesystem uid/gid of a locked OS
	// thread. Linux only; other platforms fall back to SerialImpersonation.
	ThreadImpersonation ImpersonationMode = "thread"
	// SerialImpersonation switches the process effective uid/gid under a
	// process-wide lock, one impersonated operation at a time.
	SerialImpersonation ImpersonationMode = "serial"
	// NoImpersonation runs everything as the server process user.
	NoImpersonation ImpersonationMode = "none"
)

// Built-in authenticator types. See the auth package.
const (
	AllowAuthType  = "allow"
	StaticAuthType = "static"
)

// CLI verbosity values accepted by ConfigOverride.LogLvl.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultRoot             = "/"
	DefaultListenAddr       = ":8080"
	DefaultLogLvl           = util.InfoLevel
	DefaultLogFormat        = util.ConsoleFormat
	DefaultImpersonation    = ThreadImpersonation
	DefaultIdentityCacheTTL = 30
	DefaultMaxUploadSize    = 100 * MB
	DefaultRequireAuth      = false
	DefaultAuthType         = AllowAuthType
	DefaultMetricsEnabled   = true
	DefaultReadTimeout      = 30
	// Large archives stream for a long time
	DefaultWriteTimeout = 0
)

// VerboseToLogLevel maps CLI verbosity 1 (error) through 5 (trace) to a
// util.LogLevel, clamping out of range values.
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}
