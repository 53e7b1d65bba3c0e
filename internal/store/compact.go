package store

import (
	"log/slog"
	"time"

	"github.com/openbio/annostore/internal/errs"
)

// CompactAll triggers a manual compaction over every column family span and
// waits until the engine reports no pending or running compaction work.
// Progress is logged at most once per second.
func (db *DB) CompactAll() error {
	names, err := db.ColumnFamilies()
	if err != nil {
		return err
	}
	names = append(names, MetaCF)

	for _, cf := range names {
		prefix := cfPrefix(cf)
		if err := db.pb.Compact(prefix, prefixUpperBound(prefix), true); err != nil {
			return errs.WrapKind("store.CompactAll", errs.KindIO, err)
		}
	}

	start := time.Now()
	lastLogged := start
	for {
		m := db.pb.Metrics()
		if m.Compact.NumInProgress == 0 && m.Compact.EstimatedDebt == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
		if time.Since(lastLogged) > time.Second {
			slog.Info("still waiting for compaction",
				"since", time.Since(start).Round(time.Second),
				"in_progress", m.Compact.NumInProgress,
				"debt_bytes", m.Compact.EstimatedDebt)
			lastLogged = time.Now()
		}
	}

	slog.Info("compaction done", "took", time.Since(start).Round(time.Millisecond))
	return nil
}
