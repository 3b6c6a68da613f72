package main

import (
	"go.uber.org/zap"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/config"
	"github.com/thermalgrid/heatindex-analytics-worker/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
