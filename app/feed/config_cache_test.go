package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "test.yml", `
url: "https://example.com/feed.xml"
title: "Example"
site_url: "https://example.com/"
disabled: true
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 feedConfig, got %d", configCache.GetConfigCount())
	}

	feedConfig, err := configCache.GetConfig("test")
	if err != nil {
		t.Fatal(err)
	}

	if feedConfig.Name != "test" {
		t.Errorf("Expected name 'test', got '%s'", feedConfig.Name)
	}
	if feedConfig.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected URL 'https://example.com/feed.xml', got '%s'", feedConfig.URL)
	}
	if feedConfig.Title != "Example" {
		t.Errorf("Expected title 'Example', got '%s'", feedConfig.Title)
	}
	if feedConfig.SiteURL != "https://example.com/" {
		t.Errorf("Expected site URL 'https://example.com/', got '%s'", feedConfig.SiteURL)
	}
	if !feedConfig.Disabled {
		t.Error("Expected feed to be disabled")
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()

	// Missing feed URL
	writeConfig(t, tempDir, "invalid.yml", `
title: "No URL"
`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Error("Expected error for invalid feedConfig")
	}
}

func TestConfigCacheEmptyDirectory(t *testing.T) {
	configCache := NewConfigCache(t.TempDir())
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 feedConfigs from empty directory, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be ignored, got: %v", err)
	}
}

func TestConfigCacheReloadConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "test.yml", `url: "https://example.com/feed.xml"`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, tempDir, "test.yml", `
url: "https://example.com/new-feed.xml"
disabled: true
`)

	reloadedConfig, err := configCache.LoadConfig("test")
	if err != nil {
		t.Fatal(err)
	}

	if reloadedConfig.URL != "https://example.com/new-feed.xml" {
		t.Errorf("Expected updated URL 'https://example.com/new-feed.xml', got '%s'", reloadedConfig.URL)
	}
	if !reloadedConfig.Disabled {
		t.Error("Expected reloaded config to be disabled")
	}

	if _, err := configCache.LoadConfig("nonexistent"); err == nil {
		t.Error("Expected error for non-existent config")
	}

	writeConfig(t, tempDir, "test.yml", `invalid yaml content`)
	if _, err := configCache.LoadConfig("test"); err == nil {
		t.Error("Expected error for invalid config file")
	}
}

func TestConfigCacheGetConfigs(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "feed2.yml", `url: "https://example.com/feed2.xml"`)
	writeConfig(t, tempDir, "feed1.yml", `url: "https://example.com/feed1.xml"`)

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	allConfigs := configCache.GetConfigs()
	if len(allConfigs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(allConfigs))
	}
	if allConfigs[0].Name != "feed1" || allConfigs[1].Name != "feed2" {
		t.Errorf("Expected configs ordered by name, got %s, %s", allConfigs[0].Name, allConfigs[1].Name)
	}
}

func TestConfigCacheGetConfigEmptyCache(t *testing.T) {
	if _, err := NewConfigCache("").GetConfig("any"); err == nil {
		t.Error("Expected error for empty cache")
	}
}

func TestConfigCacheValidateConfig(t *testing.T) {
	configCache := NewConfigCache("")

	if err := configCache.validateConfig(nil); err == nil {
		t.Error("Expected error for nil feedConfig, got none")
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Name: "a", URL: "https://example.com/feed"}, false},
		{"valid with site", Config{Name: "a", URL: "http://example.com/feed", SiteURL: "https://example.com"}, false},
		{"missing name", Config{URL: "https://example.com/feed"}, true},
		{"missing url", Config{Name: "a"}, true},
		{"relative url", Config{Name: "a", URL: "/feed.xml"}, true},
		{"unsupported scheme", Config{Name: "a", URL: "ftp://example.com/feed"}, true},
		{"bad site url", Config{Name: "a", URL: "https://example.com/feed", SiteURL: "example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := configCache.validateConfig(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error: %v, got: %v", tt.wantErr, err)
			}
		})
	}
}
