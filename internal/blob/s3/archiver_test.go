package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polynews/backend/internal/domain"
)

type fakeObjectWriter struct {
	objects map[string][]byte
}

func (w *fakeObjectWriter) Put(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if w.objects == nil {
		w.objects = make(map[string][]byte)
	}
	w.objects[key] = data
	return nil
}

type archiveSnapStore struct {
	domain.SnapshotStore
	snaps   []domain.Snapshot
	pruned  *time.Time
	deleted int64
}

func (s *archiveSnapStore) ListBefore(_ context.Context, before time.Time) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for _, snap := range s.snaps {
		if snap.Timestamp.Before(before) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *archiveSnapStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.pruned = &before
	return s.deleted, nil
}

func snap(id string, ts time.Time, price float64) domain.Snapshot {
	return domain.Snapshot{MarketID: id, Timestamp: ts, YesPrice: price, NoPrice: 1 - price}
}

func testArchiver(store *archiveSnapStore, writer ObjectWriter, prune bool) *Archiver {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	a := NewArchiver(store, writer, 90*24*time.Hour, prune, logger)
	a.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestArchiverGroupsByDay(t *testing.T) {
	day1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	store := &archiveSnapStore{snaps: []domain.Snapshot{
		snap("m2", day1.Add(time.Hour), 0.6),
		snap("m1", day1, 0.5),
		snap("m1", day2, 0.7),
	}}
	writer := &fakeObjectWriter{}

	require.NoError(t, testArchiver(store, writer, false).Run(context.Background()))

	require.Len(t, writer.objects, 2)
	require.Contains(t, writer.objects, "snapshots/2026-05-01.jsonl")
	require.Contains(t, writer.objects, "snapshots/2026-05-02.jsonl")

	// Rows within a day come out timestamp-ordered, one JSON object per line.
	scanner := bufio.NewScanner(bytes.NewReader(writer.objects["snapshots/2026-05-01.jsonl"]))
	var rows []domain.Snapshot
	for scanner.Scan() {
		var s domain.Snapshot
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &s))
		rows = append(rows, s)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "m1", rows[0].MarketID)
	assert.Equal(t, "m2", rows[1].MarketID)

	assert.Nil(t, store.pruned, "pruning stays off unless enabled")
}

func TestArchiverSkipsRecentSnapshots(t *testing.T) {
	store := &archiveSnapStore{snaps: []domain.Snapshot{
		snap("fresh", time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), 0.5),
	}}
	writer := &fakeObjectWriter{}

	require.NoError(t, testArchiver(store, writer, false).Run(context.Background()))
	assert.Empty(t, writer.objects)
}

func TestArchiverPrunesWhenEnabled(t *testing.T) {
	old := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	store := &archiveSnapStore{
		snaps:   []domain.Snapshot{snap("m1", old, 0.5)},
		deleted: 1,
	}
	writer := &fakeObjectWriter{}

	require.NoError(t, testArchiver(store, writer, true).Run(context.Background()))

	require.NotNil(t, store.pruned)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), store.pruned.UTC())
}
