// Package config provides application configuration structures and helpers.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
)

// ClientConfig holds the configuration settings for the journal client.
type ClientConfig struct {
	ServerAddr    string // Journal server address
	ClientTimeout int    // HTTP client timeout (in seconds)
}

// NewClientConfig creates and returns a new ClientConfig by parsing flags,
// an optional JSON config file and environment variables. Precedence:
// explicit flags beat the JSON file; environment variables beat both.
func NewClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		ServerAddr:    "http://localhost:8080",
		ClientTimeout: 10,
	}

	var fAddr, fConf strFlag
	var fTO intFlag
	flag.Var(&fAddr, "a", "journal server address (must include http(s)://)")
	flag.Var(&fTO, "t", "client timeout (seconds)")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if fAddr.set {
		cfg.ServerAddr = fAddr.v
	}
	if fTO.set {
		cfg.ClientTimeout = fTO.v
	}

	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		if js, err := loadClientJSON(fConf.v); err == nil {
			if js.Address != nil && !fAddr.set {
				cfg.ServerAddr = *js.Address
			}
			if js.ClientTimeout != nil && !fTO.set {
				if sec, err := parseDurationSeconds(*js.ClientTimeout); err == nil {
					cfg.ClientTimeout = sec
				}
			}
		}
	}

	readClientEnvironment(cfg)

	// normalize address
	if !strings.HasPrefix(cfg.ServerAddr, "http://") && !strings.HasPrefix(cfg.ServerAddr, "https://") {
		cfg.ServerAddr = "http://" + cfg.ServerAddr
	}
	return cfg
}

func readClientEnvironment(cfg *ClientConfig) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.ServerAddr = addr
	}

	timeoutEnv := os.Getenv("CLIENT_TIMEOUT")
	if timeoutEnv != "" {
		v, err := strconv.Atoi(timeoutEnv)
		if err == nil {
			cfg.ClientTimeout = v
		} else {
			log.Printf("invalid CLIENT_TIMEOUT env var: %v", err)
		}
	}
}
