// Package config builds the immutable Config value that QuickFT's server
// and client constructors take explicitly, replacing the original
// implementation's scattered global defaults. Layering mirrors this
// codebase's existing main.go idiom (flag.FlagSet plus
// github.com/m-lab/go/flagx.ArgsFromEnv for environment overrides), with an
// optional file layer read through github.com/spf13/viper underneath the
// flags.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/spf13/viper"
)

// Defaults, per the protocol's external interface.
const (
	DefaultPort                  = 29765
	DefaultMaxConnections        = 256
	DefaultMaxConnectionsCeiling = 512
	DefaultTframe                = 30 * time.Second
	DefaultTack                  = 8 * time.Second
	DefaultBase64LineLen         = 72
	DefaultMaxContentLength      = 512 * 1024 * 1024 // 512 MiB
	DefaultRoot                  = "."
)

// Config is the immutable configuration shared by the server's accept loop,
// request processor, and the client's per-call defaults.
type Config struct {
	Port uint16

	// MaxConnections is the admission-control limit on concurrently active
	// workers (the semaphore size). MaxConnectionsCeiling is the
	// protocol-level hard ceiling it may never exceed.
	MaxConnections        int
	MaxConnectionsCeiling int

	Tframe time.Duration
	Tack   time.Duration

	Base64LineLen int

	// Root is the directory all server-side paths are resolved against;
	// see fsutil.SafeJoin.
	Root string

	// MaxContentLength bounds the declared =length: value accepted on a
	// FILE_SND request, closing the unbounded-disk-fill issue noted
	// against the original implementation.
	MaxContentLength int64
}

// Default returns the compiled-in Config matching the protocol's documented
// defaults.
func Default() Config {
	return Config{
		Port:                  DefaultPort,
		MaxConnections:        DefaultMaxConnections,
		MaxConnectionsCeiling: DefaultMaxConnectionsCeiling,
		Tframe:                DefaultTframe,
		Tack:                  DefaultTack,
		Base64LineLen:         DefaultBase64LineLen,
		Root:                  DefaultRoot,
		MaxContentLength:      DefaultMaxContentLength,
	}
}

// Load builds a Config from, in increasing priority: the compiled-in
// defaults, an optional config file (YAML/JSON/TOML, auto-detected by
// viper from its extension), command-line flags parsed from args, and
// finally environment variables for any flag the caller did not set
// explicitly (via flagx.ArgsFromEnv, exactly as this codebase's main.go
// already does after flag.Parse).
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("port", int(d.Port))
	v.SetDefault("max-connections", d.MaxConnections)
	v.SetDefault("tframe", d.Tframe)
	v.SetDefault("tack", d.Tack)
	v.SetDefault("base64-line-len", d.Base64LineLen)
	v.SetDefault("root", d.Root)
	v.SetDefault("max-content-length", d.MaxContentLength)

	configFile := findConfigFileArg(args)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read config file %s: %w", configFile, err)
		}
	}

	port := fs.Int("port", v.GetInt("port"), "TCP port the server listens on")
	maxConnections := fs.Int("max-connections", v.GetInt("max-connections"), "admission-control limit on concurrent workers")
	tframe := fs.Duration("tframe", v.GetDuration("tframe"), "per-frame I/O deadline")
	tack := fs.Duration("tack", v.GetDuration("tack"), "per-ACK deadline")
	lineLen := fs.Int("base64-line-len", v.GetInt("base64-line-len"), "base64 line-wrap width (multiple of 4)")
	root := fs.String("root", v.GetString("root"), "server filesystem root")
	maxContentLength := fs.Int64("max-content-length", v.GetInt64("max-content-length"), "maximum accepted FILE_SND content length, in bytes")
	fs.String("config", "", "optional config file (YAML/JSON/TOML)")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}
	if err := flagx.ArgsFromEnv(fs); err != nil {
		return Config{}, fmt.Errorf("config: apply environment overrides: %w", err)
	}

	if *port < 0 || *port > 65535 {
		return Config{}, fmt.Errorf("config: port %d out of range", *port)
	}
	if *maxConnections <= 0 || *maxConnections > DefaultMaxConnectionsCeiling {
		return Config{}, fmt.Errorf("config: max-connections %d must be in (0, %d]", *maxConnections, DefaultMaxConnectionsCeiling)
	}

	return Config{
		Port:                  uint16(*port),
		MaxConnections:        *maxConnections,
		MaxConnectionsCeiling: DefaultMaxConnectionsCeiling,
		Tframe:                *tframe,
		Tack:                  *tack,
		Base64LineLen:         *lineLen,
		Root:                  *root,
		MaxContentLength:      *maxContentLength,
	}, nil
}

// findConfigFileArg does a minimal pre-scan of args for "--config" or
// "-config", since viper needs the file read before the flags that it
// seeds as defaults are even declared.
func findConfigFileArg(args []string) string {
	for i, a := range args {
		if a == "--config" || a == "-config" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		const prefix1, prefix2 = "--config=", "-config="
		if len(a) > len(prefix1) && a[:len(prefix1)] == prefix1 {
			return a[len(prefix1):]
		}
		if len(a) > len(prefix2) && a[:len(prefix2)] == prefix2 {
			return a[len(prefix2):]
		}
	}
	return ""
}
