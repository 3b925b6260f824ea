// Package config provides configuration loading for stagegate.
//
// Configuration is loaded with Viper, supporting a YAML config file and
// environment variable overrides. Defaults work out of the box for a
// conventionally laid out project; a config file is only needed to move
// documents, change thresholds, or swap the test command.
//
// Key types:
//   - [Config] is the root configuration container
//   - [Loader] handles Viper-based loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (STAGEGATE_ prefix)
//  2. Config file specified by STAGEGATE_CONFIG_PATH
//  3. ./stagegate.yaml in the working directory
//  4. [DefaultConfig] defaults
package config

import (
	"strings"

	"stagegate/internal/stage"
)

// Config is the root configuration structure.
type Config struct {
	// Documents locates the persisted workflow documents.
	Documents DocumentsConfig `mapstructure:"documents"`

	// Deliverables maps stage names to their deliverable directories.
	// Each directory must be non-empty before its stage can be approved.
	Deliverables map[string]string `mapstructure:"deliverables"`

	// Thresholds holds the numeric admission gates.
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`

	// Git contains version-control settings.
	Git GitConfig `mapstructure:"git"`

	// Tests configures the verification-stage test run.
	Tests TestsConfig `mapstructure:"tests"`
}

// DocumentsConfig locates the three persisted workflow documents.
type DocumentsConfig struct {
	// State is the line-oriented workflow state document.
	State string `mapstructure:"state"`

	// Requirements is the requirements checklist document.
	Requirements string `mapstructure:"requirements"`

	// ApprovalLog is the append-only cycle-completion log.
	ApprovalLog string `mapstructure:"approval_log"`
}

// ThresholdsConfig holds the numeric admission gates.
type ThresholdsConfig struct {
	// MinChangeLines is the minimum insertions+deletions required between
	// the last approved commit and HEAD for Implementation approval.
	MinChangeLines int `mapstructure:"min_change_lines"`

	// CoverageFloor is the minimum test coverage percentage required for
	// Verification approval.
	CoverageFloor float64 `mapstructure:"coverage_floor"`
}

// GitConfig contains version-control settings.
type GitConfig struct {
	// Remote is the remote name used for tag queries and pushes.
	Remote string `mapstructure:"remote"`
}

// TestsConfig configures the verification-stage test run.
type TestsConfig struct {
	// Command is the test command argv. The default runs the Go toolchain
	// with coverage so the coverage floor can be enforced.
	Command []string `mapstructure:"command"`

	// Dir is the directory the test command runs in. Empty means the
	// working directory of the invocation.
	Dir string `mapstructure:"dir"`
}

// DefaultConfig returns a new [Config] with defaults for a conventionally
// laid out project.
func DefaultConfig() *Config {
	deliverables := make(map[string]string, len(stage.All()))
	for _, s := range stage.All() {
		deliverables[string(s)] = "deliverables/" + strings.ToLower(string(s))
	}

	return &Config{
		Documents: DocumentsConfig{
			State:        "docs/WORKFLOW_MASTER.md",
			Requirements: "docs/PROJECT_REQUIREMENTS.md",
			ApprovalLog:  "logs/approvals.log",
		},
		Deliverables: deliverables,
		Thresholds: ThresholdsConfig{
			MinChangeLines: 10,
			CoverageFloor:  1.0,
		},
		Git: GitConfig{
			Remote: "origin",
		},
		Tests: TestsConfig{
			Command: []string{"go", "test", "-cover", "./..."},
		},
	}
}

// DeliverableDir returns the deliverable directory configured for s.
// Stages without an explicit entry fall back to the default layout.
func (c *Config) DeliverableDir(s stage.Stage) string {
	if dir, ok := c.Deliverables[string(s)]; ok && dir != "" {
		return dir
	}
	return "deliverables/" + strings.ToLower(string(s))
}
