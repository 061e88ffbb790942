// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvrs/vrs/reader"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.vrs>",
		Short: "Verify a file opens and report whether its index was rebuilt by scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := reader.Open(args[0], logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer rd.Close()

			fmt.Printf("%s: %d streams, %d records\n", args[0], len(rd.StreamIds()), rd.RecordCount())
			if rd.Degraded() {
				fmt.Println("  index was rebuilt by linear scan (Description or IndexRecord missing or corrupt)")
			} else {
				fmt.Println("  index loaded normally")
			}
			return nil
		},
	}
}
