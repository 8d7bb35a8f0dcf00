package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete client configuration.
type Config struct {
	Room  RoomSettings  `hcl:"room,block"`
	Relay RelaySettings `hcl:"relay,block"`
}

// RoomSettings describes the table we connect to and the local timing
// policy.
type RoomSettings struct {
	ID                int64 `hcl:"id"`
	Seats             int   `hcl:"seats,optional"`
	SmallBlind        int64 `hcl:"small_blind,optional"`
	MinimumEntry      int64 `hcl:"minimum_entry,optional"`
	NewRoundDelayMs   int   `hcl:"new_round_delay_ms,optional"`
	AutoActionDelayMs int   `hcl:"auto_action_delay_ms,optional"`
}

// RelaySettings describes the relay connection.
type RelaySettings struct {
	URL           string `hcl:"url"`
	ChainID       string `hcl:"chain_id,optional"`
	PlayerAddress string `hcl:"player_address,optional"`
}

// NewRoundDelay returns the configured pause between rounds.
func (r RoomSettings) NewRoundDelay() time.Duration {
	return time.Duration(r.NewRoundDelayMs) * time.Millisecond
}

// AutoActionDelay returns the configured grace before blinds are
// auto-posted.
func (r RoomSettings) AutoActionDelay() time.Duration {
	return time.Duration(r.AutoActionDelayMs) * time.Millisecond
}

// Load reads configuration from an HCL file and backfills defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", filename)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Room.Seats == 0 {
		config.Room.Seats = 6
	}
	if config.Room.NewRoundDelayMs == 0 {
		config.Room.NewRoundDelayMs = 10000
	}
	if config.Room.AutoActionDelayMs == 0 {
		config.Room.AutoActionDelayMs = 1500
	}
	if config.Relay.ChainID == "" {
		config.Relay.ChainID = "mainnet"
	}

	return &config, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Room.ID <= 0 {
		return fmt.Errorf("room id must be positive, got %d", c.Room.ID)
	}
	if c.Room.Seats < 2 || c.Room.Seats > 10 {
		return fmt.Errorf("room seats must be between 2 and 10, got %d", c.Room.Seats)
	}
	if c.Room.SmallBlind < 0 {
		return fmt.Errorf("small blind cannot be negative")
	}
	if c.Relay.URL == "" {
		return fmt.Errorf("relay url is required")
	}
	return nil
}
