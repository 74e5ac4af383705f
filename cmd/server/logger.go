package main

import (
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
	"github.com/septivank/rnsync-vitals/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName, cfg.Log)
}
