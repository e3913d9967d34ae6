package manager

import (
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, log calls are dropped.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the manager.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog != nil {
		return zlog
	}
	nop := zerolog.Nop()
	return &nop
}
