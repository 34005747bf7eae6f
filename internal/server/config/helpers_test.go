package config

import (
	"context"

	"github.com/dmitrijs2005/kvstore/internal/logging"
)

type recordingLogger struct {
	logging.Nop
	args [][]any
}

func (r *recordingLogger) Info(_ context.Context, _ string, args ...any) {
	r.args = append(r.args, args)
}

func containsValue(args []any, want any) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
