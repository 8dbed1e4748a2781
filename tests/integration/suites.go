//go:build integration

package integration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is one fixture planned against a golden snapshot.
type Suite struct {
	Fixture  string `yaml:"fixture"`
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

// SuitesConfig holds the list of suites to check.
type SuitesConfig struct {
	Suites []Suite `yaml:"suites"`
}

// LoadSuites loads suite definitions from suites.yaml.
func LoadSuites() (*SuitesConfig, error) {
	testDataDir, err := getTestDataDir()
	if err != nil {
		return nil, err
	}
	suitesPath := filepath.Join(testDataDir, "..", "suites.yaml")
	return loadSuitesFromPath(suitesPath)
}

// FixturePath returns the path of the suite's fixture file.
func (s Suite) FixturePath() (string, error) {
	testDataDir, err := getTestDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(testDataDir, "fixtures", s.Fixture), nil
}

func loadSuitesFromPath(path string) (*SuitesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suites config from %s: %w", path, err)
	}

	var config SuitesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshal suites config: %w", err)
	}

	if err := validateSuitesConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid suites config: %w", err)
	}

	return &config, nil
}

func validateSuitesConfig(config *SuitesConfig) error {
	if len(config.Suites) == 0 {
		return errors.New("no suites defined")
	}

	seen := make(map[string]bool, len(config.Suites))
	for i, suite := range config.Suites {
		if suite.Name == "" {
			return fmt.Errorf("suite %d: name is required", i)
		}
		if seen[suite.Name] {
			return fmt.Errorf("suite %s: duplicate name", suite.Name)
		}
		seen[suite.Name] = true
		if suite.Fixture == "" {
			return fmt.Errorf("suite %s: fixture is required", suite.Name)
		}
	}
	return nil
}

func getTestDataDir() (string, error) {
	integrationDir, err := getIntegrationDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(integrationDir, "testdata"), nil
}

func getIntegrationDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return wd, nil
}
