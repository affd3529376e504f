// internal/config/model.go
//
// Typed configuration model for kvd.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four layers:
//
//   • built-in defaults                      – see defaults() in loader.go,
//   • optional `.env`                        – dotenv values,
//   • `conf/kvd.yaml`                        – primary static file,
//   • `KVD_`-prefixed environment overrides  – highest precedence.
//
// Validation happens immediately after unmarshal; the daemon refuses to
// start with a missing or nonsensical capacity.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds listener and server timeout tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Cache section
//

// Cache sizes the store.  MaxSize is in bytes of key plus value and is fixed
// for the life of the process.  PromoteOnRead selects whether a Get refreshes
// recency (true LRU) or only writes do.
type Cache struct {
	MaxSize       int  `koanf:"max_size"        validate:"required,min=1"`
	PromoteOnRead bool `koanf:"promote_on_read"`
}

//
// Log section
//

// Log controls the zap logger.  Tee forces the console core on or off; when
// unset the entry point decides from whether stdout is a TTY.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   *bool  `koanf:"tee"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // KVD_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load().
type Config struct {
	HTTP  HTTP  `koanf:"http"`
	Cache Cache `koanf:"cache"`
	Log   Log   `koanf:"log"`
	Paths Paths `koanf:"-"` // not loaded from config files
}
