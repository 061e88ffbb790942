// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package vlog provides the narrow leveled-logger interface threaded
// through VRS components as a constructor option (Errorf/Warnf/Debugf/Infof),
// backed by go.uber.org/zap.
package vlog

import (
	"go.uber.org/zap"
)

// Logger is the narrow leveled-logging surface every VRS component takes
// as a constructor option.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Helper wraps a *zap.SugaredLogger behind the Logger interface.
type Helper struct {
	s *zap.SugaredLogger
}

// NewHelper wraps logger, or a discarding logger if logger is nil.
func NewHelper(logger *zap.Logger) *Helper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{s: logger.Sugar()}
}

// NewStdLogger returns a zap logger writing leveled, human-readable lines
// to stderr. Components given no Logger option use Discard, not this.
func NewStdLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (h *Helper) Debugf(format string, args ...interface{}) { h.s.Debugf(format, args...) }
func (h *Helper) Infof(format string, args ...interface{})  { h.s.Infof(format, args...) }
func (h *Helper) Warnf(format string, args ...interface{})  { h.s.Warnf(format, args...) }
func (h *Helper) Errorf(format string, args ...interface{}) { h.s.Errorf(format, args...) }

// Discard is a Logger that drops every message; useful as a test double.
var Discard Logger = discard{}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}
