package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mediacatalog/logging"
	"mediacatalog/metrics"
)

// Pinger is satisfied by *database.DB.
type Pinger interface {
	TestConnection(ctx context.Context) (int, error)
}

// DBProbe checks that the store answers a trivial query and exports the
// result as the db_up gauge. State changes are logged once.
type DBProbe struct {
	db      Pinger
	timeout time.Duration

	mu      sync.Mutex
	checked bool
	up      bool
}

// NewDBProbe returns a probe that gives each check timeout to complete.
func NewDBProbe(db Pinger, timeout time.Duration) *DBProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DBProbe{db: db, timeout: timeout}
}

// Name implements Job.
func (p *DBProbe) Name() string {
	return "db_probe"
}

// Run implements Job.
func (p *DBProbe) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.db.TestConnection(ctx)
	p.record(err == nil, err)
	if err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}
	return nil
}

// Up reports the result of the last check. False before the first one.
func (p *DBProbe) Up() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up
}

func (p *DBProbe) record(up bool, err error) {
	p.mu.Lock()
	changed := !p.checked || p.up != up
	p.checked = true
	p.up = up
	p.mu.Unlock()

	metrics.SetDBUp(up)
	if !changed {
		return
	}
	if up {
		logging.Info().Msg("Database reachable")
	} else {
		logging.Error().Err(err).Msg("Database unreachable")
	}
}
