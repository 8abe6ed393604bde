package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flotacoop/fleetcore/core/model"
)

func sampleRecord(action Action, tripID, coopID string, ts time.Time) LogRecord {
	return LogRecord{
		Timestamp:     ts,
		Action:        action,
		TripID:        tripID,
		CooperativaID: coopID,
		Proposal: model.Proposal{
			CooperativaID:  coopID,
			DriverID:       "drv-1",
			TerminalOrigin: "term-quito",
		},
	}
}

func TestJSONLStoreAppendAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, sampleRecord(ActionCommit, "trip-1", "coop-a", base)))
	require.NoError(t, store.Append(ctx, sampleRecord(ActionReject, "", "coop-a", base.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, sampleRecord(ActionCommit, "trip-2", "coop-b", base.Add(2*time.Minute))))

	all, err := store.Query(ctx, LogQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	commits, err := store.Query(ctx, LogQuery{Action: ActionCommit, CooperativaID: "coop-a"})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "trip-1", commits[0].TripID)

	late, err := store.Query(ctx, LogQuery{Start: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, late, 1)
	require.Equal(t, "trip-2", late[0].TripID)
}

func TestSQLiteStoreAppendAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, sampleRecord(ActionCommit, "trip-1", "coop-a", base)))
	require.NoError(t, store.Append(ctx, sampleRecord(ActionCancel, "trip-1", "coop-a", base.Add(time.Hour))))

	recs, err := store.Query(ctx, LogQuery{TripID: "trip-1"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, ActionCommit, recs[0].Action)
	require.Equal(t, ActionCancel, recs[1].Action)

	cancels, err := store.Query(ctx, LogQuery{Action: ActionCancel})
	require.NoError(t, err)
	require.Len(t, cancels, 1)
}

func TestRotatingJSONLStoreQueriesRotatedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(ctx, sampleRecord(ActionCommit, "trip-1", "coop-a", base.Add(time.Duration(i)*time.Minute))))
	}
	recs, err := store.Query(ctx, LogQuery{CooperativaID: "coop-a"})
	require.NoError(t, err)
	require.Len(t, recs, 10)
}
