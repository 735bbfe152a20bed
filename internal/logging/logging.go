// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger; debug selects the development preset
func New(debug bool) (*zap.SugaredLogger, error) {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}

	return zapLogger.Sugar(), nil
}

// Must is New for main packages, falling back to a no-op logger
func Must(debug bool) *zap.SugaredLogger {
	logger, err := New(debug)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
