// Package log provides zap-backed observers for the transformation stack and
// its memoization layer. The core itself never logs: attach these where the
// embedding system wants visibility.
package log

import (
	"go.uber.org/zap"

	"github.com/on-the-ground/transform_ive_go/transforms"
	"github.com/on-the-ground/transform_ive_go/transforms/cache"
)

// NewZapObserver returns a stage observer logging at Debug level.
func NewZapObserver(logger *zap.Logger) transforms.Observer {
	return zapObserver{logger: logger}
}

type zapObserver struct {
	logger *zap.Logger
}

var _ transforms.Observer = zapObserver{}

func (o zapObserver) StageApplied(stage string) {
	o.logger.Debug("stage applied", zap.String("stage", stage))
}

func (o zapObserver) StageResumed(stage string) {
	o.logger.Debug("stage resumed", zap.String("stage", stage))
}

func (o zapObserver) StageCanceled(stage string) {
	o.logger.Warn("stage canceled", zap.String("stage", stage))
}

// NewZapCacheObserver returns a hit/miss observer logging at Debug level.
func NewZapCacheObserver(logger *zap.Logger) cache.Observer {
	return zapCacheObserver{logger: logger}
}

type zapCacheObserver struct {
	logger *zap.Logger
}

var _ cache.Observer = zapCacheObserver{}

func (o zapCacheObserver) CacheHit(info cache.HitInfo) {
	o.logger.Debug("cache hit",
		zap.String("fn", info.Fn),
		zap.Uint64("digest", info.Digest),
		zap.Duration("computed_in", info.ComputedIn.Duration()),
	)
}

func (o zapCacheObserver) CacheMiss(info cache.MissInfo) {
	o.logger.Debug("cache miss",
		zap.String("fn", info.Fn),
		zap.Uint64("digest", info.Digest),
	)
}
