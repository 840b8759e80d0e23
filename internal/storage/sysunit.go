package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SysUnit logs every blob that passes through the chains.
type SysUnit struct {
	sugar *zap.SugaredLogger
}

func NewSysUnit(logger *zap.Logger) *SysUnit {
	return &SysUnit{sugar: logger.Sugar()}
}

func (s *SysUnit) Name() string {
	return "sys"
}

func (s *SysUnit) PutMiddleware(next PutHandler) PutHandler {
	return PutHandlerFunc(func(ctx context.Context, blob *Blob) error {
		start := time.Now()
		size := len(blob.Data)
		err := next.Put(ctx, blob)
		if err != nil {
			s.sugar.Errorw("put", "blob", blob.Name, "error", err)
			return err
		}
		s.sugar.Debugw("put", "blob", blob.Name, "size", size, "stored", len(blob.Data), "elapsed", time.Since(start))
		return nil
	})
}

func (s *SysUnit) FindMiddleware(next FindHandler) FindHandler {
	return FindHandlerFunc(func(ctx context.Context, blob *Blob) error {
		start := time.Now()
		err := next.Find(ctx, blob)
		if err != nil {
			s.sugar.Debugw("find", "blob", blob.Name, "error", err)
			return err
		}
		s.sugar.Debugw("find", "blob", blob.Name, "size", len(blob.Data), "elapsed", time.Since(start))
		return nil
	})
}
