package config

// loader.go - layered configuration loading.
//
// Precedence order (highest wins):
//   1. CLI flags that were set explicitly
//   2. MINESWEEPER_* environment variables
//   3. The --config file (YAML, TOML or JSON by extension)
//   4. Flag defaults (defaults.go)

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	mserr "minesweeper/internal/errors"
)

// Keys shared by flags, environment variables and config files.
const (
	KeyPort       = "port"
	KeyDebug      = "debug"
	KeyNoDebug    = "no-debug"
	KeySize       = "size"
	KeyFile       = "file"
	KeyTimeout    = "timeout"
	KeySSHPort    = "ssh-port"
	KeySSHHostKey = "ssh-host-key"
	KeyVerbose    = "verbose"
	KeyConfig     = "config"
	KeyDryRun     = "dry-run"
)

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *flag.FlagSet) {
	// ── game ─────────────────────────────────────────────────────
	fs.IntP(KeyPort, "p", DefaultPort, "TCP port to listen on (0 = any free port)")
	sw := new(debugSwitch)
	fs.VarPF(&debugFlag{sw, true}, KeyDebug, "", "Keep players connected after they hit a bomb").NoOptDefVal = "true"
	fs.VarPF(&debugFlag{sw, false}, KeyNoDebug, "", "Disconnect players who hit a bomb (default)").NoOptDefVal = "true"
	fs.String(KeySize, "", fmt.Sprintf("Random board size as WIDTH,HEIGHT (default %d,%d)", DefaultSize, DefaultSize))
	fs.StringP(KeyFile, "f", "", "Load the bomb layout from a file")
	fs.IntP(KeyTimeout, "w", 0, "Idle timeout per player in seconds (0 = none)")

	// ── SSH ──────────────────────────────────────────────────────
	fs.Int(KeySSHPort, 0, "Also serve the game over SSH on this port")
	fs.String(KeySSHHostKey, "", "SSH host private key (PEM); generated if omitted")

	// ── output ───────────────────────────────────────────────────
	fs.CountP(KeyVerbose, "v", "Increase verbosity (repeatable)")
	fs.String(KeyConfig, "", "Read settings from a YAML, TOML or JSON file")
	fs.Bool(KeyDryRun, false, "Validate configuration and exit")
}

// Load resolves the configuration from a parsed FlagSet created with
// [RegisterFlags], the environment and an optional config file.
// Positional arguments are left to the caller.
func Load(fs *flag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &mserr.ConfigError{
				Field:   KeyConfig,
				Value:   path,
				Message: err.Error(),
				Hint:    "the file extension selects the format: .yaml, .toml or .json",
			}
		}
	}

	cfg := &Config{
		Port:           v.GetInt(KeyPort),
		Debug:          debugMode(fs, v),
		Width:          DefaultSize,
		Height:         DefaultSize,
		BoardFile:      v.GetString(KeyFile),
		Timeout:        time.Duration(v.GetInt(KeyTimeout)) * time.Second,
		SSHPort:        v.GetInt(KeySSHPort),
		SSHHostKeyPath: v.GetString(KeySSHHostKey),
		Verbose:        v.GetInt(KeyVerbose),
		ConfigFile:     v.GetString(KeyConfig),
		DryRun:         v.GetBool(KeyDryRun),
	}

	if spec := v.GetString(KeySize); spec != "" {
		w, h, err := ParseSize(spec)
		if err != nil {
			return nil, err
		}
		cfg.Width, cfg.Height, cfg.SizeGiven = w, h, true
	}
	return cfg, nil
}

// ── --debug / --no-debug ─────────────────────────────────────────────

// debugSwitch is shared by --debug and --no-debug so that whichever
// appears last on the command line decides.
type debugSwitch struct {
	on  bool
	set bool
}

// debugFlag is one spelling of the switch.  enables is the mode the
// flag selects when given as true.
type debugFlag struct {
	sw      *debugSwitch
	enables bool
}

func (f *debugFlag) String() string {
	if f.sw == nil {
		return "false"
	}
	return strconv.FormatBool(f.sw.set && f.sw.on == f.enables)
}

func (f *debugFlag) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.sw.on = b == f.enables
	f.sw.set = true
	return nil
}

func (f *debugFlag) Type() string { return "bool" }

// debugMode prefers the command line, where the last of --debug and
// --no-debug wins, and otherwise falls back to env and config file.
func debugMode(fs *flag.FlagSet, v *viper.Viper) bool {
	if fl := fs.Lookup(KeyDebug); fl != nil {
		if df, ok := fl.Value.(*debugFlag); ok && df.sw.set {
			return df.sw.on
		}
	}
	return v.GetBool(KeyDebug) && !v.GetBool(KeyNoDebug)
}
