package config

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	loadedConfig *BotConfig

	configMutex sync.RWMutex
)

func LoadConfig(filePath string) error {
	log.Printf("Loading configuration from %s...", filePath)

	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	cfg, err := Parse(yamlFile)
	if err != nil {
		return fmt.Errorf("failed to load '%s': %w", filePath, err)
	}

	configMutex.Lock()
	loadedConfig = cfg
	configMutex.Unlock()

	log.Printf("Configuration loaded and validated successfully. %d apartments, %d down payment options.", len(cfg.Apartments), len(cfg.DownPaymentPercents))
	return nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*BotConfig, error) {
	var cfg BotConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func GetConfig() *BotConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if loadedConfig == nil {
		log.Println("Warning: GetConfig() called before configuration was loaded.")
	}
	return loadedConfig
}
