package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	configpkg "github.com/minhyannv/chatgpt-cli-go/pkg/config"
	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `model: from-file
timeout_secs: 10
store: memory
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := map[string]string{
		configpkg.EnvAPIKey:  "sk-env",
		configpkg.EnvModel:   "from-env",
		configpkg.EnvTimeout: "20",
	}

	cfg, err := loadConfig(cliFlags{ConfigFile: path, Model: "from-flag"}, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Model != "from-flag" {
		t.Fatalf("expected flag to win, got %q", cfg.Model)
	}
	if cfg.TimeoutSeconds != 20 {
		t.Fatalf("expected env to beat file, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Store != "memory" {
		t.Fatalf("expected file value to apply, got %q", cfg.Store)
	}
	if cfg.APIKey != "sk-env" {
		t.Fatalf("expected api key from env, got %q", cfg.APIKey)
	}
}

func TestLoadConfigWithoutKeyFailsValidation(t *testing.T) {
	cfg, err := loadConfig(cliFlags{ConfigFile: filepath.Join(t.TempDir(), "none.yaml")}, func(string) string { return "" })
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if err := configpkg.Validate(cfg); err == nil {
		t.Fatal("expected validation to fail without an API key")
	}
}

func TestModelShorthandFlag(t *testing.T) {
	var f cliFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, &f)

	if err := fs.Parse([]string{"tell", "me", "-m", "deepseek-reasoner", "a", "joke"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Model != "deepseek-reasoner" {
		t.Fatalf("expected model override, got %q", f.Model)
	}
	if got := fs.Args(); len(got) != 4 || got[0] != "tell" || got[3] != "joke" {
		t.Fatalf("unexpected positional prompt: %q", got)
	}
}

func TestOpenStore(t *testing.T) {
	cfg := configpkg.Normalize(configpkg.Config{Store: "file", HistoryDir: t.TempDir()})
	store, err := openStore(cfg, nil)
	if err != nil {
		t.Fatalf("openStore file: %v", err)
	}
	_ = store.Close()

	cfg.Store = "memory"
	store, err = openStore(cfg, nil)
	if err != nil {
		t.Fatalf("openStore memory: %v", err)
	}
	if _, ok := store.(*transcript.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	cfg.Store = "redis"
	cfg.RedisURL = "not a url"
	if _, err := openStore(cfg, nil); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}

func TestRootCommandReportsMissingKey(t *testing.T) {
	t.Setenv(configpkg.EnvAPIKey, "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "hello"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected missing key error")
	}
}
