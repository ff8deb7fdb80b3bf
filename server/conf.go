package server

import (
	"log/slog"
	"os"
	"time"

	"github.com/dm-vev/ferrite/server/world/generation"
	toml "github.com/pelletier/go-toml"
)

// UserConfig is the on-disk form of a server configuration, serialised as
// server.toml the way dragonfly's UserConfig serialises as a TOML file,
// using the teacher's own go-toml dependency.
type UserConfig struct {
	Network struct {
		// Address is the TCP address the server listens on.
		Address string
	}
	Server struct {
		Name                 string
		MOTD                 string
		MaxPlayers           int
		CompressionThreshold int32
		EncryptionEnabled    bool
	}
	World struct {
		// ViewDistance is the default per-player chunk radius.
		ViewDistance int32
		// GeneratorWorkers bounds the chunk-generation worker pool.
		GeneratorWorkers int
		// TickMillis is the fixed tick period, in milliseconds.
		TickMillis int
	}
}

// DefaultConfig returns a UserConfig with every field set to a sane default.
func DefaultConfig() UserConfig {
	var c UserConfig
	c.Network.Address = ":25565"
	c.Server.Name = "Ferrite Server"
	c.Server.MOTD = "A Ferrite server"
	c.Server.MaxPlayers = 20
	c.Server.CompressionThreshold = 256
	c.Server.EncryptionEnabled = true
	c.World.ViewDistance = 8
	c.World.GeneratorWorkers = 4
	c.World.TickMillis = 50
	return c
}

// LoadConfig reads a UserConfig from a TOML file at path, writing out the
// defaults first if the file does not yet exist, mirroring the way
// dragonfly's cmd/dragonfly bootstraps config.toml on first run.
func LoadConfig(path string) (UserConfig, error) {
	conf := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		b, err := toml.Marshal(conf)
		if err != nil {
			return conf, err
		}
		if err := os.WriteFile(path, b, 0644); err != nil {
			return conf, err
		}
		return conf, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := toml.Unmarshal(b, &conf); err != nil {
		return conf, err
	}
	return conf, nil
}

// Config configures a Server at construction, filled out from a UserConfig
// by ToConfig.
type Config struct {
	Log *slog.Logger

	Address              string
	Name                 string
	MOTD                 string
	MaxPlayers           int
	CompressionThreshold int32
	EncryptionEnabled    bool

	ViewDistance     int32
	GeneratorWorkers int64
	TickPeriod       time.Duration

	// Generator produces the block data for one chunk column. Defaults to
	// a flat superflat world if left nil.
	Generator generation.Generator

	// RegistryCodec is the opaque NBT blob echoed verbatim in JoinGame.
	RegistryCodec map[string]any
}

func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.Address == "" {
		c.Address = ":25565"
	}
	if c.Name == "" {
		c.Name = "Ferrite Server"
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 20
	}
	if c.ViewDistance <= 0 {
		c.ViewDistance = 8
	}
	if c.GeneratorWorkers <= 0 {
		c.GeneratorWorkers = 4
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = 50 * time.Millisecond
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = 256
	}
	if c.Generator == nil {
		c.Generator = FlatGenerator()
	}
	if c.RegistryCodec == nil {
		c.RegistryCodec = DefaultRegistryCodec()
	}
}

// ToConfig converts a UserConfig to a Config, the way dragonfly's
// UserConfig.Config does.
func (uc UserConfig) ToConfig(log *slog.Logger) Config {
	return Config{
		Log:                  log,
		Address:              uc.Network.Address,
		Name:                 uc.Server.Name,
		MOTD:                 uc.Server.MOTD,
		MaxPlayers:           uc.Server.MaxPlayers,
		CompressionThreshold: uc.Server.CompressionThreshold,
		EncryptionEnabled:    uc.Server.EncryptionEnabled,
		ViewDistance:         uc.World.ViewDistance,
		GeneratorWorkers:     int64(uc.World.GeneratorWorkers),
		TickPeriod:           time.Duration(uc.World.TickMillis) * time.Millisecond,
	}
}
