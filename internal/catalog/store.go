package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/logx"
)

// Store serves the current snapshot and rebuilds it from its Source on demand
type Store struct {
	source  Source
	current atomic.Pointer[Catalog]
}

// NewStore loads the initial snapshot; a failing first load is fatal.
func NewStore(ctx context.Context, source Source) (*Store, error) {
	s := &Store{source: source}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the snapshot in effect
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload replaces the snapshot. On failure the previous snapshot stays.
func (s *Store) Reload(ctx context.Context) error {
	logger := logx.WithContext(ctx)

	products, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	c, issues, err := New(products)
	for _, is := range issues {
		if is.Severity == SeverityWarning {
			logger.Infow("catalog issue", logx.Field("issue", is.String()))
		}
	}
	if err != nil {
		return err
	}

	s.current.Store(c)
	logger.Infof("catalog loaded: %d products, %d featured", c.Len(), len(c.featured))
	return nil
}
