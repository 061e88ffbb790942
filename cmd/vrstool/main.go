// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command vrstool inspects and copies VRS container files: "details"
// prints a file's streams and tags, "check" verifies a file opens
// cleanly (falling back to index rebuild-by-scan), and "copy" applies a
// stream/time filter while writing a new file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openvrs/vrs/internal/vlog"
)

var (
	verbose    bool
	configFile string
	logger     vlog.Logger
)

func main() {
	var rootCmd *cobra.Command
	rootCmd = &cobra.Command{
		Use:   "vrstool",
		Short: "Inspect and copy VRS recording files",
		Long:  "vrstool reads and writes VRS container files: recorded sensor streams framed, compressed, and indexed for random access.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viper.SetEnvPrefix("VRSTOOL")
			viper.AutomaticEnv()
			if configFile != "" {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					fmt.Fprintf(os.Stderr, "vrstool: config file %s: %v\n", configFile, err)
				}
			}
			_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
			if viper.GetBool("verbose") {
				logger = vlog.NewHelper(vlog.NewStdLogger())
			} else {
				logger = vlog.Discard
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (layered under flags > env > file > defaults)")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("vrstool version 0.1.0")
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newDetailsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newCopyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
