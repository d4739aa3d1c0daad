package config

import (
	"encoding/json"
	"testing"

	"github.com/bfix/gospel/logger"
)

func TestParseBytes(t *testing.T) {
	logger.SetLogLevel(logger.WARN)

	data := []byte(`{
		"environ": {"HOST": "127.0.0.1"},
		"maxPeers": 8,
		"serverPort": 7000,
		"serverHost": "${HOST}",
		"stabilizerDelay": 30,
		"seed": {"host": "127.0.0.1", "port": 7001, "hops": 2},
		"models": [{"name": "lin", "path": "./models/lin.json"}]
	}`)

	if err := ParseBytes(data); err != nil {
		t.Fatal(err)
	}
	if Cfg.ServerHost != "127.0.0.1" {
		t.Fatalf("environment substitution failed: got %q", Cfg.ServerHost)
	}
	if Cfg.MaxPeers != 8 || Cfg.Seed == nil || Cfg.Seed.Hops != 2 {
		t.Fatalf("unexpected config: %+v", Cfg)
	}
	if _, err := json.Marshal(Cfg); err != nil {
		t.Fatal(err)
	}
}

func TestParseBytesRequiresPort(t *testing.T) {
	if err := ParseBytes([]byte(`{"maxPeers": 1}`)); err == nil {
		t.Fatal("expected an error for missing serverPort")
	}
}
