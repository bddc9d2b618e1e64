package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/dataset"
)

func writeInvoiceWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Fakturaliste"},
		{"Kunde: Testkunde AS"},
		{},
		{},
		{"Nr", "Fakturanr", "Beløp"},
		{1, "F-1", 100},
	}
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func receiveCompletion(t *testing.T, m *LoadManager) Completion {
	t.Helper()
	select {
	case c := <-m.Completions():
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no completion received")
		return Completion{}
	}
}

func TestLoadInvoiceDeliversCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inv.xlsx")
	writeInvoiceWorkbook(t, path)

	m := NewLoadManager(dataset.NewLoader(zap.NewNop()), zap.NewNop())
	m.LoadInvoice(context.Background(), path, 4)

	c := receiveCompletion(t, m)
	require.NoError(t, c.Err)
	assert.Equal(t, SlotInvoice, c.Slot)
	assert.Equal(t, "Testkunde AS", c.ClientName)
	assert.Equal(t, 1, c.Dataset.RowCount())
}

func TestLoadFailureDeliversError(t *testing.T) {
	m := NewLoadManager(dataset.NewLoader(zap.NewNop()), zap.NewNop())
	m.LoadInvoice(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), 4)

	c := receiveCompletion(t, m)
	require.Error(t, c.Err)
	assert.Nil(t, c.Dataset)
}

func TestSupersededLoadIsDropped(t *testing.T) {
	m := NewLoadManager(dataset.NewLoader(zap.NewNop()), zap.NewNop())

	release := make(chan struct{})
	// First load blocks until released, simulating a slow file.
	m.start(context.Background(), SlotLedger, func() Completion {
		<-release
		return Completion{Slot: SlotLedger, ClientName: "stale"}
	})
	// Second load for the same slot supersedes it.
	m.start(context.Background(), SlotLedger, func() Completion {
		return Completion{Slot: SlotLedger, ClientName: "fresh"}
	})

	c := receiveCompletion(t, m)
	assert.Equal(t, "fresh", c.ClientName)

	close(release)
	select {
	case c := <-m.Completions():
		t.Fatalf("stale completion delivered: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSupersedeAfterLoadFinishesIsDropped(t *testing.T) {
	m := NewLoadManager(dataset.NewLoader(zap.NewNop()), zap.NewNop())

	loaded := make(chan struct{})
	release := make(chan struct{})
	m.start(context.Background(), SlotLedger, func() Completion {
		close(loaded)
		<-release
		return Completion{Slot: SlotLedger, ClientName: "stale"}
	})
	<-loaded

	// Supersede between the load finishing and its delivery: holding the
	// manager lock keeps the finished load out of its staleness check
	// until the generation has moved on.
	m.mu.Lock()
	close(release)
	m.generations[SlotLedger]++
	m.mu.Unlock()

	select {
	case c := <-m.Completions():
		t.Fatalf("stale completion delivered: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIndependentSlotsDoNotSupersedeEachOther(t *testing.T) {
	m := NewLoadManager(dataset.NewLoader(zap.NewNop()), zap.NewNop())

	m.start(context.Background(), SlotInvoice, func() Completion {
		return Completion{Slot: SlotInvoice}
	})
	m.start(context.Background(), SlotLedger, func() Completion {
		return Completion{Slot: SlotLedger}
	})

	got := map[Slot]bool{}
	got[receiveCompletion(t, m).Slot] = true
	got[receiveCompletion(t, m).Slot] = true
	assert.True(t, got[SlotInvoice])
	assert.True(t, got[SlotLedger])
}
