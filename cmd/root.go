// Package cmd wires the soundmeter CLI's root cobra command and its
// subcommands, grounded on the teacher's own cmd/root.go viper-bound
// command tree.
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ambiosense/soundmeter/cmd/meter"
	"github.com/ambiosense/soundmeter/internal/conf"
)

// RootCommand creates the soundmeter root command and attaches its
// subcommands.
func RootCommand() *cobra.Command {
	v := conf.New()

	rootCmd := &cobra.Command{
		Use:   "soundmeter",
		Short: "Real-time sound level meter",
	}

	if err := setupFlags(rootCmd, v); err != nil {
		log.Printf("error setting up flags: %v\n", err)
	}

	meterCmd := meter.Command(v)
	rootCmd.AddCommand(meterCmd)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.PersistentFlags().String("config", "", "path to a YAML configuration file")
	if err := v.BindPFlag("config", cmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("binding config flag: %w", err)
	}
	return nil
}
