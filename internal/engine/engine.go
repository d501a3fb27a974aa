// Package engine executes file manager actions against the filesystem
// primitives.
package engine

import (
	"context"
	"time"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/fsops"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
)

// Engine is stateless apart from its collaborators and safe for concurrent use.
type Engine struct {
	fs      *fsops.FS
	metrics *metrics.Metrics
	logger  util.Logger
}

var _ webfm.Executor = (*Engine)(nil)

// New returns an Engine operating on fs. m may be nil.
func New(fs *fsops.FS, m *metrics.Metrics) *Engine {
	return &Engine{
		fs:      fs,
		metrics: m,
		logger:  util.GetLogger("Engine"),
	}
}

// Do executes action as username. Conflicts are reported in the Result;
// every other failure is returned as a classified error. Once started an
// action runs to completion or to its first failure; ctx is only checked
// before starting.
func (e *Engine) Do(ctx context.Context, username string, action webfm.Action) (*webfm.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	kind := string(action.Kind())
	logger := e.logger.With().Str("action", kind).Str("user", username).Logger()

	res, err := action.Dispatch(&session{fs: e.fs.As(username), logger: logger})

	outcome := "ok"
	switch {
	case err != nil:
		outcome = webfm.KindOf(err).String()
		logger.Debug().Err(err).Msg("Action failed")
	case res.Error != nil:
		outcome = webfm.Conflict.String()
		logger.Debug().Str("conflict", res.Error.Message).Msg("Action conflict")
	default:
		logger.Trace().Int("files", len(res.Files)).Msg("Action done")
	}
	e.metrics.ObserveAction(kind, outcome, time.Since(start))
	return res, err
}
