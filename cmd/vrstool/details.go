// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/openvrs/vrs/reader"
)

func prettyPrint(buf []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		log.Println("JSON parse error:", err)
		return string(buf)
	}
	return pretty.String()
}

type streamDetail struct {
	StreamID    string            `json:"stream_id"`
	Flavor      string            `json:"flavor,omitempty"`
	UserTags    map[string]string `json:"user_tags,omitempty"`
	RecordCount int               `json:"record_count"`
}

type fileDetails struct {
	Path        string            `json:"path"`
	RecordCount int               `json:"record_count"`
	FileTags    map[string]string `json:"file_tags,omitempty"`
	Streams     []streamDetail    `json:"streams"`
}

func newDetailsCmd() *cobra.Command {
	var showVrsTags bool
	cmd := &cobra.Command{
		Use:   "details <file.vrs>",
		Short: "Print a file's streams and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := reader.Open(args[0], logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer rd.Close()

			details := fileDetails{
				Path:        args[0],
				RecordCount: rd.RecordCount(),
				FileTags:    rd.FileTags(),
			}
			for _, id := range rd.StreamIds() {
				desc, _ := rd.StreamTags(id)
				sd := streamDetail{
					StreamID:    id.String(),
					Flavor:      desc.Flavor,
					UserTags:    desc.UserTags,
					RecordCount: rd.StreamRecordCount(id),
				}
				if showVrsTags {
					for k, v := range desc.VrsTags {
						if sd.UserTags == nil {
							sd.UserTags = make(map[string]string)
						}
						sd.UserTags[k] = v
					}
				}
				details.Streams = append(details.Streams, sd)
			}

			out, err := json.Marshal(details)
			if err != nil {
				return err
			}
			fmt.Println(prettyPrint(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showVrsTags, "vrs-tags", false, "include internal RecordFormat/DataLayout tags")
	return cmd
}
