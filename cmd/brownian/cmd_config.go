package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brownian/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := ensureConfigFile(path); err != nil {
				return err
			}
			return openEditor(path)
		},
	}
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func openEditor(path string) error {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# brownian configuration
# Uncomment a value to enable it. CLI flags override config values.

[first-passage]
# drift = %.2f         # Drift coefficient μ
# volatility = %.1f     # Volatility σ (> 0)
# barrier = %.1f        # Barrier level b (> 0)
# horizon = %.1f       # Time horizon T (> 0)
# step-size = %g     # Integration step Δt (0 < Δt <= T)
# paths = %d         # Simulated paths

[arcsine]
# paths = %d         # Simulated paths
# horizon = %.1f        # Time horizon
# step-size = %g    # Integration step
# bins = %d            # Histogram bins over [0, 1)

[engine]
# seed = 0             # Random seed (0 = time-based)
# workers = 0          # Simulation goroutines (0 = GOMAXPROCS)

[logging]
# level = "info"       # trace, debug, info, warn or error
`,
		defaultDrift,
		defaultVolatility,
		defaultBarrier,
		defaultHorizon,
		defaultStepSize,
		defaultPaths,
		defaultArcsinePaths,
		defaultArcsineHorizon,
		defaultArcsineStepSize,
		defaultBins,
	)
}
