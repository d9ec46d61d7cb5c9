package status

import (
	"context"
	"sync"
	"time"

	"github.com/EdoardoFiore/madmin-strongswan/internal/logging"
)

// DefaultInterval is the poll period used by tunnel detail views.
const DefaultInterval = 5 * time.Second

// FetchFunc retrieves one live snapshot for a tunnel.
type FetchFunc func(ctx context.Context) (*Snapshot, error)

// Update is one applied observation delivered to the view.
type Update struct {
	Status   TunnelStatus
	Snapshot *Snapshot
	// Changed reports whether the tunnel-level bucket moved relative to the
	// previously applied value. A view may fully re-derive its dependent
	// state on every update; Changed only says when that is unavoidable.
	Changed bool
}

// Poller owns the recurring status fetch for a single view. Its lifecycle is
// tied 1:1 to the view: create it on view entry, cancel the Run context on
// view exit. A new poll is never issued before the previous one's response
// or failure has been handled, so a stale snapshot can never be applied over
// a fresher one.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *logging.Logger

	updates chan Update

	mu   sync.Mutex
	last TunnelStatus
}

// NewPoller creates a poller. A zero interval means DefaultInterval.
func NewPoller(fetch FetchFunc, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger.WithComponent("poller"),
		updates:  make(chan Update, 1),
		last:     Disconnected,
	}
}

// Updates returns the channel carrying applied observations. It is closed
// when Run returns.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Last returns the most recently applied tunnel status. Defaults to
// disconnected until the first observation arrives.
func (p *Poller) Last() TunnelStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run performs one immediate fetch, then polls on a fixed interval after
// each completion until ctx is cancelled. Failed fetches are diagnostic
// only: they are logged, the last-known-good status stands, and the next
// tick retries.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.updates)

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	snap, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Debug("status poll failed", "error", err)
		return
	}

	st := FromIKEState(snap.IKEState)
	p.mu.Lock()
	u := Update{
		Status:   st,
		Snapshot: snap,
		Changed:  st != p.last,
	}
	p.last = st
	p.mu.Unlock()

	select {
	case p.updates <- u:
	case <-ctx.Done():
	}
}
