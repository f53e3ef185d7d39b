// Package config
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process configuration for the chat relay: built-in defaults, overridden by
// environment variables, overridden in turn by command-line flags.

package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ra5c0/ChatServer/reactor"
)

// Environment variables read by Load.
const (
	EnvAddress     = "CHATSERVER_ADDRESS"
	EnvPort        = "CHATSERVER_PORT"
	EnvBacklog     = "CHATSERVER_BACKLOG"
	EnvPollTimeout = "CHATSERVER_POLL_TIMEOUT"
	EnvLogLevel    = "CHATSERVER_LOG_LEVEL"
)

// Config holds the relay settings.
type Config struct {
	// Address is the IPv4 address to bind, 0.0.0.0 for any.
	Address string

	// Port is the TCP port to listen on.
	Port uint16

	// Backlog is the pending-connection queue depth.
	Backlog int

	// PollTimeout bounds each readiness wait.
	PollTimeout time.Duration

	// LogLevel is a logrus level name.
	LogLevel string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Address:     "0.0.0.0",
		Port:        reactor.DefaultPort,
		Backlog:     reactor.DefaultBacklog,
		PollTimeout: reactor.DefaultPollTimeout,
		LogLevel:    "info",
	}
}

// Load returns the defaults overridden by any environment variables set.
func Load() (*Config, error) {
	c := Default()
	c.Address = getEnvOrDefault(EnvAddress, c.Address)
	c.LogLevel = getEnvOrDefault(EnvLogLevel, c.LogLevel)

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = uint16(port)
	}
	if v := os.Getenv(EnvBacklog); v != "" {
		backlog, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvBacklog, err)
		}
		c.Backlog = backlog
	}
	if v := os.Getenv(EnvPollTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPollTimeout, err)
		}
		c.PollTimeout = timeout
	}
	return c, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.bindAddr(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Backlog <= 0 {
		problems = append(problems, fmt.Sprintf("backlog must be positive, got %d", c.Backlog))
	}
	if c.PollTimeout < time.Millisecond {
		problems = append(problems, fmt.Sprintf("poll timeout must be at least 1ms, got %s", c.PollTimeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Reactor converts the settings into a reactor configuration.
func (c *Config) Reactor() (reactor.Config, error) {
	if err := c.Validate(); err != nil {
		return reactor.Config{}, err
	}
	addr, _ := c.bindAddr()
	return reactor.Config{
		Addr:        addr,
		Port:        c.Port,
		Backlog:     c.Backlog,
		PollTimeout: c.PollTimeout,
	}, nil
}

func (c *Config) bindAddr() (netip.Addr, error) {
	addr, err := netip.ParseAddr(c.Address)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("bad bind address %q", c.Address)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("bind address %q is not IPv4", c.Address)
	}
	return addr, nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
