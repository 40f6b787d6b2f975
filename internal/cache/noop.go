package cache

import (
	"context"
	"time"
)

// Noop is a Cache that stores nothing. Used when Redis is not
// configured and in tests; every Get is a miss and no token is
// ever reported as blocked.
type Noop struct{}

func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Get(context.Context, string, any) error                { return ErrMiss }
func (Noop) Invalidate(context.Context, string) error              { return nil }
func (Noop) InvalidatePrefix(context.Context, string) error        { return nil }
func (Noop) BlockToken(context.Context, string) error              { return nil }
func (Noop) TokenBlocked(context.Context, string) (bool, error)    { return false, nil }
func (Noop) Ping(context.Context) error                            { return nil }
func (Noop) Close() error                                          { return nil }
