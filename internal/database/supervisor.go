package database

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// ConnectFunc makes one connection attempt.
type ConnectFunc func(ctx context.Context) error

// Supervisor keeps retrying a connection with a fixed delay until it succeeds
// or its context ends. There is no attempt limit.
type Supervisor struct {
	connect   ConnectFunc
	delay     time.Duration
	log       *slog.Logger
	connected atomic.Bool
	attempts  atomic.Int64
}

func NewSupervisor(connect ConnectFunc, delay time.Duration, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{connect: connect, delay: delay, log: log}
}

// Run blocks until a connection attempt succeeds (nil) or ctx is done (ctx.Err()).
func (s *Supervisor) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		n := s.attempts.Add(1)
		err := s.connect(ctx)
		if err == nil {
			s.connected.Store(true)
			s.log.Info("✅ storage connected", "attempt", n)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Error("storage connection failed, retrying", "attempt", n, "retry_in", s.delay.String(), "error", err)
		timer.Reset(s.delay)
	}
}

// Connected reports whether an attempt has succeeded.
func (s *Supervisor) Connected() bool {
	return s.connected.Load()
}

// Attempts reports how many connection attempts were made.
func (s *Supervisor) Attempts() int64 {
	return s.attempts.Load()
}
