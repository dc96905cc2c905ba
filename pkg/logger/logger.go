package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the process-wide logger. LOG_MODE=development switches to the
// human-readable console encoder.
func New() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("LOG_MODE") == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}
