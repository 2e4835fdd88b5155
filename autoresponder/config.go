package autoresponder

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig is the environment variable holding the configuration JSON.
	EnvConfig = "AUTORESPONDER_CONFIG"
	// EnvTestMode is the environment variable for test mode.
	EnvTestMode = "TEST_MODE"
	// EnvDraftMode is the environment variable for draft mode.
	EnvDraftMode = "DRAFT_MODE"
	// EnvCheckInterval is the environment variable for the check interval.
	EnvCheckInterval = "CHECK_INTERVAL_MINUTES"
	// EnvMaxPerRun is the environment variable for the per-cycle message cap.
	EnvMaxPerRun = "MAX_EMAILS_PER_RUN"
)

// Config holds the application configuration settings.
type Config struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	MyDomain        string `json:"mydomain"`
	CredentialsPath string `json:"credentials"`
	TokenPath       string `json:"token"`
	RulesPath       string `json:"rules"`
	TemplatesDir    string `json:"templates"`
	TestMode        bool   `json:"test-mode"`
	DraftMode       bool   `json:"draft-mode"`
	CheckInterval   int    `json:"check-interval-minutes"`
	MaxPerRun       int64  `json:"max-emails-per-run"`
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *Config {
	return &Config{Host: "0.0.0.0",
		Port:            8334,
		MyDomain:        "local",
		CredentialsPath: "config/credentials.json",
		TokenPath:       "config/token.json",
		RulesPath:       "config/response_rules.yaml",
		TemplatesDir:    "templates",
		TestMode:        true,
		DraftMode:       true,
		CheckInterval:   5,
		MaxPerRun:       10,
	}
}

// ParseConfig reads the configuration string.
func ParseConfig(configStr string) (*Config, error) {
	config := DefaultConfig()

	if configStr == "" {
		return overwriteConfigFromEnv(config), nil
	}
	decoder := json.NewDecoder(strings.NewReader(configStr))
	err := decoder.Decode(config)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return overwriteConfigFromEnv(config), nil
}

// overwriteConfigFromEnv overrides configuration values with environment
// variables when they are set.
func overwriteConfigFromEnv(config *Config) *Config {
	if value, found := os.LookupEnv(EnvTestMode); found {
		config.TestMode = strings.EqualFold(value, "true")
	}
	if value, found := os.LookupEnv(EnvDraftMode); found {
		config.DraftMode = strings.EqualFold(value, "true")
	}
	if value, found := os.LookupEnv(EnvCheckInterval); found {
		if n, err := strconv.Atoi(value); err == nil {
			config.CheckInterval = n
		}
	}
	if value, found := os.LookupEnv(EnvMaxPerRun); found {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			config.MaxPerRun = n
		}
	}
	return config
}

// Ruleset is the parsed response-rules document: global exclusions plus the
// inclusion rules in declaration order.
type Ruleset struct {
	Exclusions ExclusionSet `yaml:"exclusions"`
	Rules      []Rule       `yaml:"rules"`
}

// LoadRules reads and validates the response-rules document. Structural
// problems are fatal; the responder refuses to start without a usable
// rules section.
func LoadRules(path string) (*Ruleset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read rules document")
	}

	var rules Ruleset
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return nil, errors.Wrap(err, "failed to parse rules document")
	}

	if len(rules.Rules) == 0 {
		return nil, errors.Newf("rules document %s has no rules section", path)
	}
	for i, rule := range rules.Rules {
		if rule.Name == "" {
			return nil, errors.Newf("rule #%d has no name", i+1)
		}
		if rule.ResponseTemplate == "" {
			return nil, errors.Newf("rule %q has no response_template", rule.Name)
		}
	}
	return &rules, nil
}
