// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the proceedings-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigchi/proceedings-engine/internal/secrets"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "proceedings-engine/0.1"

	defaultPCSBase    = "https://new.precisionconference.com"
	defaultTAPSBase   = "https://camps.aptaracorp.com"
	defaultSubmitBase = "https://acmsubmit.acm.org"
	defaultUploadURL  = "https://files.atypon.com/acm/"
)

// loadedSecrets holds portal credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the proceedings-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "proceedings-engine",
	Short: "Conference proceedings preparation pipeline",
	Long: `proceedings-engine automates the administrative pipeline for conference
proceedings: fetching camera-ready metadata and files from PCS, pulling
typeset PDF/HTML renditions from TAPS, linting the two against each other,
and uploading supplementary materials to the ACM Digital Library.

Each pipeline stage is a subcommand: fetch, download, status, taps, lint,
upload, list, captions, mediainfo, and audit.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./proceedings-engine.yaml or ~/.config/proceedings-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("proceedings-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "proceedings-engine"))
		}
	}

	viper.SetEnvPrefix("PROCEEDINGS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configDefault returns the viper value for key, or fallback when unset.
func configDefault(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// pcsConfig assembles the PCS portal configuration for a track.
// Credentials come from .secrets/ (pcs-user, pcs-password), overridable
// through viper (pcs.user, pcs.password).
func pcsConfig(track string) types.PCSConfig {
	return types.PCSConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		BaseURL:  configDefault("pcs.base_url", defaultPCSBase),
		Track:    track,
		User:     loadedSecrets.Get("pcs-user", viper.GetString("pcs.user")),
		Password: loadedSecrets.Get("pcs-password", viper.GetString("pcs.password")),
	}
}

// tapsConfig assembles the TAPS portal configuration.
func tapsConfig() types.TAPSConfig {
	return types.TAPSConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		BaseURL:      configDefault("taps.base_url", defaultTAPSBase),
		ProceedingID: viper.GetString("taps.proceeding_id"),
		EventID:      viper.GetString("taps.event_id"),
		WorkshopID:   configDefault("taps.workshop_id", "0"),
		User:         loadedSecrets.Get("taps-user", viper.GetString("taps.user")),
		Password:     loadedSecrets.Get("taps-password", viper.GetString("taps.password")),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
