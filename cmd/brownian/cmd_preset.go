package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/sim"
	"github.com/verte-zerg/brownian/internal/stats"
	"github.com/verte-zerg/brownian/internal/store"
)

func newPresetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved first-passage configurations",
	}
	cmd.AddCommand(newPresetSaveCmd(opts))
	cmd.AddCommand(newPresetListCmd(opts))
	cmd.AddCommand(newPresetShowCmd(opts))
	cmd.AddCommand(newPresetDeleteCmd(opts))
	return cmd
}

func newPresetSaveCmd(opts *rootOptions) *cobra.Command {
	p := defaultPassageOptions()
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save the given first-passage flags under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadFileConfig(cmd, opts)
			if err != nil {
				return err
			}
			p.apply(cmd, fileCfg)
			cfg := p.config()
			if _, err := sim.ValidateFirstPassage(cfg); err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			return withStore(opts, func(st *store.Store) error {
				if err := st.SavePreset(cmd.Context(), model.Preset{Name: name, Config: cfg, CreatedAt: time.Now().UTC()}); err != nil {
					return fmt.Errorf("failed to save preset: %w", err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q\n", name)
				return err
			})
		},
	}
	p.register(cmd)
	return cmd
}

func newPresetListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return withStore(opts, func(st *store.Store) error {
				presets, err := st.ListPresets(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list presets: %w", err)
				}
				if opts.format != formatText {
					if presets == nil {
						presets = []model.Preset{}
					}
					return writeStructured(cmd.OutOrStdout(), opts.format, presets)
				}
				return stats.RenderPresets(cmd.OutOrStdout(), presets)
			})
		},
	}
}

func newPresetShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show one preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return withStore(opts, func(st *store.Store) error {
				preset, err := st.GetPreset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.format != formatText {
					return writeStructured(cmd.OutOrStdout(), opts.format, preset)
				}
				return stats.RenderPresets(cmd.OutOrStdout(), []model.Preset{preset})
			})
		},
	}
}

func newPresetDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				if err := st.DeletePreset(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %q\n", args[0])
				return err
			})
		},
	}
}

func withStore(opts *rootOptions, fn func(st *store.Store) error) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(st)
}
