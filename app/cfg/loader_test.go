package cfg

import (
	"os"
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// Version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadDefaults(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	t.Setenv("TZ", "UTC")
	t.Setenv("REQUIRE_BRAND", "true")
	t.Setenv("TEMPLATES_DIR", "/srv/templates")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.DBPath != "./data/feeds.db" {
		t.Errorf("Expected default DB path, got '%s'", cfg.DBPath)
	}
	if cfg.TemplatesDir != "/srv/templates" {
		t.Errorf("Expected templates dir from environment, got '%s'", cfg.TemplatesDir)
	}
	if !cfg.RequireBrand {
		t.Error("Expected require brand from environment")
	}
	if Get() != cfg {
		t.Error("Get should return the loaded configuration")
	}
}

func TestFeedURL(t *testing.T) {
	cfg := &Cfg{Port: "8080"}
	if got := cfg.FeedURL("shop.xml"); got != "http://localhost:8080/feeds/shop.xml" {
		t.Errorf("Unexpected local feed URL: %s", got)
	}

	cfg.BaseUrl = "https://feeds.example.com"
	if got := cfg.FeedURL("shop.xml"); got != "https://feeds.example.com/feeds/shop.xml" {
		t.Errorf("Unexpected public feed URL: %s", got)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./feeds.db",
		TemplatesDir:      "./templates",
		ProductsFile:      "./products.csv",
		Port:              "8080",
		BaseUrl:           "https://feeds.example.com",
		WorkerCount:       5,
		SchedulerInterval: 30,
		APIAccessKey:      "test-key",
		RequireBrand:      true,
		Version:           "test-version",
		Timezone:          "UTC",
		Debug:             true,
	}

	if cfg.ProductsFile != "./products.csv" {
		t.Errorf("Expected products file './products.csv', got '%s'", cfg.ProductsFile)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 30 {
		t.Errorf("Expected scheduler interval 30, got %d", cfg.SchedulerInterval)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
