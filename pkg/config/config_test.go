package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"iotcore/internal/testutil"
)

func TestLoadAppliesDefaultsWithoutAConfigFile(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.DefaultPollIntervalMS != 1000 {
		t.Fatalf("expected default poll interval 1000, got %d", cfg.Bus.DefaultPollIntervalMS)
	}
	if !cfg.Bus.Retain {
		t.Fatalf("expected bus.retain default true")
	}
	if cfg.WorkerPool.Workers != 4 {
		t.Fatalf("expected default worker pool size 4, got %d", cfg.WorkerPool.Workers)
	}
}

func TestLoadMergesOverridesFromConfigFile(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	data := []byte("bus:\n  default_poll_interval_ms: 250\n  retain: false\nscheduler:\n  default_priority: 5\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bus.DefaultPollIntervalMS != 250 {
		t.Fatalf("expected overridden poll interval 250, got %d", cfg.Bus.DefaultPollIntervalMS)
	}
	if cfg.Bus.Retain {
		t.Fatalf("expected bus.retain overridden to false")
	}
	if cfg.Scheduler.DefaultPriority != 5 {
		t.Fatalf("expected scheduler default priority 5, got %d", cfg.Scheduler.DefaultPriority)
	}
}

func TestLoadFromEnvUsesIOTCOREEnvVariable(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := sb.WriteFile("config/default.yaml", []byte("http:\n  addr: \":8080\"\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := sb.WriteFile("config/staging.yaml", []byte("http:\n  addr: \":9090\"\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()
	os.Setenv("IOTCORE_ENV", "staging")
	defer os.Unsetenv("IOTCORE_ENV")

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected staging override :9090, got %s", cfg.HTTP.Addr)
	}
}
