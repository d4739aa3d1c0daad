// This file is part of p2pml, a P2P machine-learning inference network.
//
// Originally derived from gnunet-go's configuration loader
// (config.ParseConfig): JSON file -> typed struct, with ${KEY}
// substitutions from the file's own "environ" map applied by walking
// the struct via reflection (process environment variables are not
// read). The GNUnet-specific sections (GNS/DHT/Namecache
// endpoints) are replaced by this node's own configuration surface.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/bfix/gospel/logger"
)

// SeedConfig names one bootstrap seed to crawl from at startup.
type SeedConfig struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
	Hops int    `json:"hops"`
}

// ModelConfig names one model to auto-load at startup via the file
// loader.
type ModelConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Environment settings, substituted into string fields as ${KEY}.
type Environ map[string]string

// Config is the aggregated configuration for a node.
type Config struct {
	Env Environ `json:"environ"`

	MaxPeers   int    `json:"maxPeers"`   // 0 == unbounded
	ServerPort uint16 `json:"serverPort"` // required
	ServerHost string `json:"serverHost"` // optional; discovered if empty
	MyID       string `json:"myId"`       // optional; synthesized if empty

	Seed            *SeedConfig   `json:"seed"`            // optional bootstrap seed
	StabilizerDelay int           `json:"stabilizerDelay"` // seconds; 0 disables the stabilizer
	LogLevel        int           `json:"logLevel"`        // gospel/logger level
	Models          []ModelConfig `json:"models"`          // auto-loaded at startup
	DiagnosticsAddr string        `json:"diagnosticsAddr"` // empty disables the HTTP diagnostics endpoint
}

// Cfg is the process-wide configuration, set by Parse.
var Cfg *Config

// Parse reads a JSON-encoded configuration file and applies environment
// substitutions, mirroring gnunet/config.ParseConfig.
func Parse(fileName string) (err error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	return ParseBytes(file)
}

// ParseBytes parses raw JSON configuration bytes, exposed separately so
// tests can exercise it without a file on disk (gnunet/config_test.go's
// style).
func ParseBytes(data []byte) (err error) {
	cfg := new(Config)
	if err = json.Unmarshal(data, cfg); err != nil {
		return err
	}
	if cfg.ServerPort == 0 {
		return fmt.Errorf("config: serverPort is required")
	}
	applySubstitutions(cfg, cfg.Env)
	Cfg = cfg
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// substString replaces every ${KEY} occurrence in s with env[KEY],
// leaving unresolved references untouched.
func substString(s string, env map[string]string) string {
	matches := envPattern.FindAllStringSubmatch(s, -1)
	for _, m := range matches {
		if len(m[1]) == 0 {
			continue
		}
		if subst, ok := env[m[1]]; ok {
			s = strings.ReplaceAll(s, "${"+m[1]+"}", subst)
		}
	}
	return s
}

// applySubstitutions traverses the configuration data structure and
// applies string substitutions to every string field, recursing into
// nested structs, pointers and slices of structs.
func applySubstitutions(x interface{}, env map[string]string) {
	var process func(v reflect.Value)
	process = func(v reflect.Value) {
		switch v.Kind() {
		case reflect.Ptr:
			if !v.IsNil() {
				process(v.Elem())
			}
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				process(v.Index(i))
			}
		case reflect.Struct:
			for i := 0; i < v.NumField(); i++ {
				fld := v.Field(i)
				if !fld.CanSet() {
					continue
				}
				switch fld.Kind() {
				case reflect.String:
					s := fld.String()
					for {
						s1 := substString(s, env)
						if s1 == s {
							break
						}
						logger.Printf(logger.DBG, "[config] %s --> %s\n", s, s1)
						s = s1
					}
					fld.SetString(s)
				case reflect.Struct, reflect.Ptr, reflect.Slice, reflect.Array:
					process(fld)
				}
			}
		}
	}
	process(reflect.ValueOf(x))
}
