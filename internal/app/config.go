package app

import (
	"github.com/storelytic/storetwin-backend/internal/platform/envutil"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

type Config struct {
	HTTPAddr string
}

func LoadConfig(log *logger.Logger) Config {
	addr := envutil.String("HTTP_ADDR", "")
	if addr == "" {
		addr = ":" + envutil.String("PORT", "8080")
	}
	log.Info("HTTP address resolved", "addr", addr)
	return Config{HTTPAddr: addr}
}
