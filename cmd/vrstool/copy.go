// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/compress"
	"github.com/openvrs/vrs/filter"
	"github.com/openvrs/vrs/reader"
	"github.com/openvrs/vrs/writer"
)

// parseTimeBound parses the "<sec or ±sec>" syntax: a leading '+' anchors
// the offset to the file's start, a leading '-' anchors it to the file's
// end (offset stays negative), and a bare number is an absolute timestamp.
func parseTimeBound(s string) (filter.TimeBound, error) {
	switch {
	case strings.HasPrefix(s, "+"):
		v, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return filter.TimeBound{}, fmt.Errorf("%w: malformed time bound %q", vrs.ErrInvalidParameter, s)
		}
		return filter.TimeBound{Anchor: filter.RelativeToStart, Offset: v}, nil
	case strings.HasPrefix(s, "-"):
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter.TimeBound{}, fmt.Errorf("%w: malformed time bound %q", vrs.ErrInvalidParameter, s)
		}
		return filter.TimeBound{Anchor: filter.RelativeToEnd, Offset: v}, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter.TimeBound{}, fmt.Errorf("%w: malformed time bound %q", vrs.ErrInvalidParameter, s)
		}
		return filter.TimeBound{Anchor: filter.Absolute, Offset: v}, nil
	}
}

// applyStreamSelector parses "<streamOrType>" (either a bare type id "100"
// or a full stream id "100-1") and applies it to f as an include or
// exclude rule.
func applyStreamSelector(f *filter.Filter, s string, include bool) error {
	if strings.Contains(s, "-") {
		id, err := vrs.ParseStreamId(s)
		if err != nil {
			return err
		}
		if include {
			f.IncludeStream(id)
		} else {
			f.ExcludeStream(id)
		}
		return nil
	}
	typeID, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return fmt.Errorf("%w: malformed stream/type selector %q", vrs.ErrInvalidParameter, s)
	}
	if include {
		f.IncludeType(uint16(typeID))
	} else {
		f.ExcludeType(uint16(typeID))
	}
	return nil
}

func parsePreset(s string) (compress.Preset, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return compress.None, nil
	case "lz4fast":
		return compress.Lz4Fast, nil
	case "lz4tight":
		return compress.Lz4Tight, nil
	case "zstdfast":
		return compress.ZstdFast, nil
	case "zstdlight":
		return compress.ZstdLight, nil
	case "zstdmedium":
		return compress.ZstdMedium, nil
	case "zstdtight":
		return compress.ZstdTight, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression preset %q", vrs.ErrInvalidParameter, s)
	}
}

func newCopyCmd() *cobra.Command {
	var (
		includeSelectors []string
		excludeSelectors []string
		after, before    string
		aroundCenter     string
		aroundWindow     float64
		reencode         bool
		presetName       string
	)

	cmd := &cobra.Command{
		Use:   "copy <src.vrs> <dst.vrs>",
		Short: "Copy a filtered subset of a file's records into a new file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filter.New()
			for _, s := range includeSelectors {
				if err := applyStreamSelector(f, s, true); err != nil {
					return err
				}
			}
			for _, s := range excludeSelectors {
				if err := applyStreamSelector(f, s, false); err != nil {
					return err
				}
			}
			if after != "" {
				b, err := parseTimeBound(after)
				if err != nil {
					return err
				}
				f.Range.After = &b
			}
			if before != "" {
				b, err := parseTimeBound(before)
				if err != nil {
					return err
				}
				f.Range.Before = &b
			}
			if aroundCenter != "" {
				b, err := parseTimeBound(aroundCenter)
				if err != nil {
					return err
				}
				f.Range.AroundCenter = &b
				f.Range.AroundWindow = aroundWindow
			}
			if err := f.Range.Validate(); err != nil {
				return err
			}

			preset, err := parsePreset(presetName)
			if err != nil {
				return err
			}

			src, err := reader.Open(args[0], logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer src.Close()

			dst := writer.New(writer.Options{Logger: logger, Preset: preset})
			if err := dst.Open(args[1]); err != nil {
				return fmt.Errorf("open %s: %w", args[1], err)
			}
			if err := filter.RegisterStandIns(dst, src, f); err != nil {
				return err
			}

			mode := filter.Verbatim
			if reencode {
				mode = filter.ReEncode
			}
			n, err := filter.Copy(src, dst, filter.CopyOptions{Mode: mode, Filter: f})
			if err != nil {
				return err
			}
			if err := dst.Finalize(); err != nil {
				return err
			}
			fmt.Printf("copied %d records into %s\n", n, args[1])
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&includeSelectors, "include", nil, "include a stream (\"T-I\") or every stream of a type (\"T\"); repeatable")
	cmd.Flags().StringArrayVar(&excludeSelectors, "exclude", nil, "exclude a stream or type; repeatable, always wins over --include")
	cmd.Flags().StringVar(&after, "after", "", "keep records at or after this time (\"5\" absolute, \"+5\" from file start, \"-5\" from file end)")
	cmd.Flags().StringVar(&before, "before", "", "keep records at or before this time")
	cmd.Flags().StringVar(&aroundCenter, "around", "", "center of a time window (use with --around-window); same forms as --after")
	cmd.Flags().Float64Var(&aroundWindow, "around-window", 0, "half-width in seconds of the --around time window")
	cmd.Flags().BoolVar(&reencode, "reencode", false, "decode and re-encode each record instead of copying its compressed bytes verbatim")
	cmd.Flags().StringVar(&presetName, "compression", "none", "compression preset used in --reencode mode (none, lz4fast, lz4tight, zstdfast, zstdlight, zstdmedium, zstdtight)")
	return cmd
}
