package launch

import "github.com/xplshn/sharun/pkg/environ"

// Environment variables read by the launcher.
const (
	EnvLdName     = "SHARUN_LDNAME"
	EnvWorkingDir = "SHARUN_WORKING_DIR"
	EnvDir        = "SHARUN_DIR"
	EnvArgv0      = "ARGV0"
	EnvAppDir     = "APPDIR"
)

// Config holds the launcher knobs taken from the environment. It is read
// after .env has been merged, so a bundle may ship its own defaults.
type Config struct {
	LdName     string
	WorkingDir string
	Argv0      string
}

func LoadConfig(env *environ.Env) Config {
	return Config{
		LdName:     getEnvWithDefault(env, EnvLdName, ""),
		WorkingDir: getEnvWithDefault(env, EnvWorkingDir, ""),
		Argv0:      getEnvWithDefault(env, EnvArgv0, ""),
	}
}

func getEnvWithDefault[T ~string](env *environ.Env, key string, defaultValue T) T {
	if value, ok := env.Lookup(key); ok && value != "" {
		return T(value)
	}
	return defaultValue
}
