// Package worker isolates blocking spreadsheet I/O from the foreground.
// Each load runs on its own goroutine and hands its outcome back as a
// single completion message; the foreground consumes completions on its
// own thread. The two dataset slots (invoice register, general ledger)
// each allow one in-flight load: a new request supersedes the previous
// one, and a superseded completion is dropped rather than delivered.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/dataset"
)

// Slot identifies which dataset a load targets.
type Slot int

const (
	SlotInvoice Slot = iota
	SlotLedger
)

func (s Slot) String() string {
	if s == SlotInvoice {
		return "invoice"
	}
	return "ledger"
}

// Completion is the single message a finished load delivers. Exactly one
// of Dataset and Err is set. ClientName is only filled for invoice loads
// that could recover it from the cover rows.
type Completion struct {
	Slot       Slot
	Dataset    *dataset.Dataset
	ClientName string
	Err        error
}

// LoadManager runs dataset loads in the background with per-slot
// supersede semantics. No cancellation exists beyond dropping stale
// completions, and no timeouts: failures surface through Completion.Err.
type LoadManager struct {
	loader *dataset.Loader
	logger *zap.Logger

	mu          sync.Mutex
	generations map[Slot]uint64

	completions chan Completion
}

// NewLoadManager creates a manager delivering completions on a small
// buffered channel obtained from Completions.
func NewLoadManager(loader *dataset.Loader, logger *zap.Logger) *LoadManager {
	return &LoadManager{
		loader:      loader,
		logger:      logger,
		generations: make(map[Slot]uint64),
		completions: make(chan Completion, 4),
	}
}

// Completions returns the channel the foreground consumes.
func (m *LoadManager) Completions() <-chan Completion {
	return m.completions
}

// LoadInvoice starts a background load of the invoice register.
func (m *LoadManager) LoadInvoice(ctx context.Context, path string, headerRow int) {
	m.start(ctx, SlotInvoice, func() Completion {
		ds, err := m.loader.LoadInvoice(path, headerRow)
		c := Completion{Slot: SlotInvoice, Dataset: ds, Err: err}
		if err == nil {
			c.ClientName = m.loader.ExtractClientName(path)
		}
		return c
	})
}

// LoadLedger starts a background load of the general ledger.
func (m *LoadManager) LoadLedger(ctx context.Context, path string) {
	m.start(ctx, SlotLedger, func() Completion {
		ds, err := m.loader.LoadLedger(path)
		return Completion{Slot: SlotLedger, Dataset: ds, Err: err}
	})
}

func (m *LoadManager) start(ctx context.Context, slot Slot, load func() Completion) {
	m.mu.Lock()
	m.generations[slot]++
	gen := m.generations[slot]
	m.mu.Unlock()

	m.logger.Debug("Background load started",
		zap.Stringer("slot", slot),
		zap.Uint64("generation", gen))

	go func() {
		c := load()

		// Staleness check and delivery share one critical section; a
		// supersede lands either before the check or after the send,
		// never in between.
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.generations[slot] != gen {
			m.logger.Info("Superseded load dropped",
				zap.Stringer("slot", slot),
				zap.Uint64("generation", gen))
			return
		}
		select {
		case m.completions <- c:
		case <-ctx.Done():
			m.logger.Warn("Completion discarded, context done",
				zap.Stringer("slot", slot))
		}
	}()
}
