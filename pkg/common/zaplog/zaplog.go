/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog backs the framework logger with zap.
//
// Install it once at startup:
//
//	log.Initialize(zaplog.New(base))
package zaplog

import (
	"go.uber.org/zap"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// Provider hands out zap loggers named after their module.
type Provider struct {
	base *zap.Logger
}

// New returns a provider over base. A nil base logs nothing.
func New(base *zap.Logger) *Provider {
	if base == nil {
		base = zap.NewNop()
	}

	return &Provider{base: base}
}

// NewProduction returns a JSON provider writing to stderr at the given framework level.
func NewProduction(level log.Level) (*Provider, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = Level(level)

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return New(base), nil
}

// GetLogger returns the logger of module.
func (p *Provider) GetLogger(module string) log.Logger {
	return &logger{s: p.base.Named(module).WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	return p.base.Sync()
}

// Level maps a framework level onto zap.
func Level(level log.Level) zap.AtomicLevel {
	switch level {
	case log.CRITICAL:
		return zap.NewAtomicLevelAt(zap.DPanicLevel)
	case log.ERROR:
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	case log.WARNING:
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case log.DEBUG:
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}

type logger struct {
	s *zap.SugaredLogger
}

func (l *logger) Panicf(msg string, args ...interface{}) { l.s.Panicf(msg, args...) }
func (l *logger) Fatalf(msg string, args ...interface{}) { l.s.Fatalf(msg, args...) }
func (l *logger) Errorf(msg string, args ...interface{}) { l.s.Errorf(msg, args...) }
func (l *logger) Warnf(msg string, args ...interface{})  { l.s.Warnf(msg, args...) }
func (l *logger) Infof(msg string, args ...interface{})  { l.s.Infof(msg, args...) }
func (l *logger) Debugf(msg string, args ...interface{}) { l.s.Debugf(msg, args...) }
