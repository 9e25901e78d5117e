package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
)

// newTestLRU returns a store with a controllable clock.
func newTestLRU(maxSize int) (*LRU, *time.Time) {
	c := NewLRU(maxSize, 5*time.Minute)
	now := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRURoundTrip(t *testing.T) {
	c, _ := newTestLRU(10)
	ctx := context.Background()
	params := protocol.Params{"ledger_name": "Cash"}

	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, params); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.Put(ctx, protocol.ReportLedgerDetails, "<ENVELOPE>ledger</ENVELOPE>", params)

	payload, ok := c.Get(ctx, protocol.ReportLedgerDetails, params)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if payload != "<ENVELOPE>ledger</ENVELOPE>" {
		t.Errorf("payload = %q", payload)
	}

	// Same report, different parameters, is a different entry.
	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, protocol.Params{"ledger_name": "Bank"}); ok {
		t.Error("different parameters should miss")
	}
}

func TestLRUOverwrite(t *testing.T) {
	c, _ := newTestLRU(10)
	ctx := context.Background()

	c.Put(ctx, protocol.ReportCompanyInfo, "first", nil)
	c.Put(ctx, protocol.ReportCompanyInfo, "second", nil)

	payload, ok := c.Get(ctx, protocol.ReportCompanyInfo, nil)
	if !ok || payload != "second" {
		t.Errorf("got (%q, %v), want the overwritten payload", payload, ok)
	}
	if size := c.Stats().Size; size != 1 {
		t.Errorf("size after overwrite = %d, want 1", size)
	}
}

func TestLRUExpiry(t *testing.T) {
	c, now := newTestLRU(10)
	ctx := context.Background()

	// Day book entries carry a 30 second TTL.
	c.Put(ctx, protocol.ReportDayBook, "entries", protocol.Params{"from_date": "x", "to_date": "y"})

	*now = now.Add(29 * time.Second)
	if _, ok := c.Get(ctx, protocol.ReportDayBook, protocol.Params{"from_date": "x", "to_date": "y"}); !ok {
		t.Fatal("entry expired before its TTL")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, protocol.ReportDayBook, protocol.Params{"from_date": "x", "to_date": "y"}); ok {
		t.Fatal("entry survived past its TTL")
	}

	// The expired entry was evicted on read.
	if size := c.Stats().Size; size != 0 {
		t.Errorf("size after expired read = %d, want 0", size)
	}
}

func TestLRUPerReportTTL(t *testing.T) {
	c, _ := newTestLRU(10)

	tests := []struct {
		report protocol.Report
		want   time.Duration
	}{
		{protocol.ReportCompanyInfo, 10 * time.Minute},
		{protocol.ReportLedgerList, 5 * time.Minute},
		{protocol.ReportLedgerDetails, 3 * time.Minute},
		{protocol.ReportBalanceSheet, time.Minute},
		{protocol.ReportVoucherList, 30 * time.Second},
		{protocol.ReportVoucherDetails, time.Minute},
		{protocol.ReportDayBook, 30 * time.Second},
		{protocol.ReportStockSummary, 5 * time.Minute}, // default
	}

	for _, tt := range tests {
		t.Run(tt.report.String(), func(t *testing.T) {
			if got := c.TTLFor(tt.report); got != tt.want {
				t.Errorf("TTLFor(%s) = %v, want %v", tt.report, got, tt.want)
			}
		})
	}
}

func TestLRUBoundEviction(t *testing.T) {
	c, _ := newTestLRU(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		params := protocol.Params{"ledger_name": fmt.Sprintf("Ledger %d", i)}
		c.Put(ctx, protocol.ReportLedgerDetails, fmt.Sprintf("payload %d", i), params)
	}

	// Ledger 0 was least recently used and must be gone.
	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, protocol.Params{"ledger_name": "Ledger 0"}); ok {
		t.Error("oldest entry survived eviction")
	}
	for i := 1; i < 4; i++ {
		params := protocol.Params{"ledger_name": fmt.Sprintf("Ledger %d", i)}
		if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, params); !ok {
			t.Errorf("entry %d missing after eviction", i)
		}
	}

	stats := c.Stats()
	if stats.Size != 3 {
		t.Errorf("size = %d, want 3", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestLRUGetPromotesEntry(t *testing.T) {
	c, _ := newTestLRU(2)
	ctx := context.Background()

	c.Put(ctx, protocol.ReportLedgerDetails, "a", protocol.Params{"ledger_name": "A"})
	c.Put(ctx, protocol.ReportLedgerDetails, "b", protocol.Params{"ledger_name": "B"})

	// Touch A so B becomes the eviction victim.
	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, protocol.Params{"ledger_name": "A"}); !ok {
		t.Fatal("expected hit for A")
	}

	c.Put(ctx, protocol.ReportLedgerDetails, "c", protocol.Params{"ledger_name": "C"})

	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, protocol.Params{"ledger_name": "A"}); !ok {
		t.Error("promoted entry was evicted")
	}
	if _, ok := c.Get(ctx, protocol.ReportLedgerDetails, protocol.Params{"ledger_name": "B"}); ok {
		t.Error("least recently used entry survived")
	}
}

func TestLRUClear(t *testing.T) {
	c, _ := newTestLRU(10)
	ctx := context.Background()

	c.Put(ctx, protocol.ReportCompanyInfo, "company", nil)
	c.Put(ctx, protocol.ReportLedgerList, "ledgers", nil)
	c.Clear(ctx)

	if size := c.Stats().Size; size != 0 {
		t.Errorf("size after Clear = %d, want 0", size)
	}
	if _, ok := c.Get(ctx, protocol.ReportCompanyInfo, nil); ok {
		t.Error("cleared entry still readable")
	}
}

func TestLRUCleanupExpired(t *testing.T) {
	c, now := newTestLRU(10)
	ctx := context.Background()

	c.Put(ctx, protocol.ReportDayBook, "short lived", protocol.Params{"from_date": "x", "to_date": "y"}) // 30s
	c.Put(ctx, protocol.ReportCompanyInfo, "long lived", nil)                                            // 10m

	*now = now.Add(time.Minute)

	if removed := c.CleanupExpired(ctx); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if size := c.Stats().Size; size != 1 {
		t.Errorf("size after cleanup = %d, want 1", size)
	}
	if _, ok := c.Get(ctx, protocol.ReportCompanyInfo, nil); !ok {
		t.Error("fresh entry removed by cleanup")
	}
}

func TestLRUStats(t *testing.T) {
	c, _ := newTestLRU(10)
	ctx := context.Background()

	c.Put(ctx, protocol.ReportCompanyInfo, "company", nil)
	c.Get(ctx, protocol.ReportCompanyInfo, nil) // hit
	c.Get(ctx, protocol.ReportCompanyInfo, nil) // hit
	c.Get(ctx, protocol.ReportLedgerList, nil)  // miss

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	if stats.HitRatePercent < 66 || stats.HitRatePercent > 67 {
		t.Errorf("hit rate = %.2f, want ~66.67", stats.HitRatePercent)
	}
	if stats.MaxSize != 10 {
		t.Errorf("max size = %d, want 10", stats.MaxSize)
	}
	if stats.ExpirySettings["day_book"] != 30 {
		t.Errorf("day_book expiry = %d, want 30 seconds", stats.ExpirySettings["day_book"])
	}
}

func TestNewLRUDefaults(t *testing.T) {
	c := NewLRU(0, 0)
	if c.maxSize != DefaultMaxSize {
		t.Errorf("maxSize = %d, want %d", c.maxSize, DefaultMaxSize)
	}
	if c.defaultTTL != DefaultTTL {
		t.Errorf("defaultTTL = %v, want %v", c.defaultTTL, DefaultTTL)
	}
}
