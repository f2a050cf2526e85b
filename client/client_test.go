package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"laundromat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStage(t *testing.T) *Stage {
	t.Helper()
	st, err := OpenStage(filepath.Join(t.TempDir(), "nested", "stage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func day(d int) models.Date {
	return models.NewDate(time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC))
}

func TestStage_AddSaleAssignsClientKey(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)

	key, err := st.AddSale(ctx, models.SaleEntry{Date: day(1), Coin: 12.5})
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	kept, err := st.AddSale(ctx, models.SaleEntry{Date: day(2), ClientKey: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", kept)

	_, err = st.AddSale(ctx, models.SaleEntry{})
	assert.Error(t, err)

	b, err := st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.Sales, 2)
	assert.Equal(t, key, b.Request.Sales[0].ClientKey)
	assert.Equal(t, models.Amount(12.5), b.Request.Sales[0].Coin)
}

func TestStage_ClockEvents(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, st.AddClockEvent(ctx, "e1", "Ann", "out", in), ErrNoOpenShift)
	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "in", in))
	assert.ErrorIs(t, st.AddClockEvent(ctx, "e1", "Ann", "in", in.Add(time.Minute)), ErrAlreadyIn)
	assert.Error(t, st.AddClockEvent(ctx, "e1", "Ann", "break", in))

	// open shifts are held back
	b, err := st.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, b.Request.Timesheet)

	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "out", in.Add(90*time.Minute)))
	b, err = st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.Timesheet, 1)
	ts := b.Request.Timesheet[0]
	assert.Equal(t, "e1", ts.EmployeeID)
	assert.Equal(t, 90, ts.Duration)
	assert.NotEmpty(t, ts.ClientKey)
	assert.True(t, ts.TimeIn.Equal(in))
}

func TestStage_DeleteInventory(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)

	localID, err := st.UpsertInventory(ctx, models.SyncInventoryItem{Name: "Soap", CurrentStock: 4, MaxStock: 10})
	require.NoError(t, err)
	assert.Contains(t, localID, models.LocalIDPrefix)
	require.NoError(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{ItemID: localID, NewStock: 4, UpdateType: models.UpdateRestock}))

	// local-only items vanish without a server deletion
	require.NoError(t, st.DeleteInventory(ctx, localID))
	c, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)

	require.NoError(t, st.DeleteInventory(ctx, "65f000000000000000000001"))
	require.NoError(t, st.DeleteInventory(ctx, "65f000000000000000000001"))
	b, err := st.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"65f000000000000000000001"}, b.Request.DeletedInventoryIDs)
}

func TestStage_AddInventoryLogValidates(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	assert.ErrorIs(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{UpdateType: models.UpdateRestock}), ErrUnknownItem)
	assert.ErrorIs(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{ItemID: "x", UpdateType: "bogus"}), ErrInvalidUpdate)
}

func TestStage_AckRewritesResolvedIDs(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)

	_, err := st.AddSale(ctx, models.SaleEntry{Date: day(1)})
	require.NoError(t, err)
	localID, err := st.UpsertInventory(ctx, models.SyncInventoryItem{Name: "Bleach", CurrentStock: 2, MaxStock: 5})
	require.NoError(t, err)
	require.NoError(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{ItemID: localID, NewStock: 2, UpdateType: models.UpdateAdjustment}))

	b, err := st.Pending(ctx)
	require.NoError(t, err)

	// staged after the snapshot; must survive the ack
	_, err = st.AddSale(ctx, models.SaleEntry{Date: day(2)})
	require.NoError(t, err)

	idx := 0
	result := models.SyncResult{
		SavedSalesCount: 1,
		ResolvedIDs:     map[string]string{localID: "65f0000000000000000000aa"},
		Errors:          []models.ItemError{{Type: models.ErrTypeInventoryLog, Index: &idx, Error: "boom"}},
	}
	require.NoError(t, st.Ack(ctx, b, result))

	c, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Sales)
	assert.Equal(t, 0, c.Inventory)
	assert.Equal(t, 1, c.Logs)

	b, err = st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.InventoryLogs, 1)
	assert.Equal(t, "65f0000000000000000000aa", b.Request.InventoryLogs[0].ItemID)
}

type fakePoster struct {
	got    []models.SyncRequest
	result models.SyncResult
	err    error
}

func (f *fakePoster) Sync(_ context.Context, batch models.SyncRequest) (models.SyncResult, error) {
	f.got = append(f.got, batch)
	return f.result, f.err
}

func TestSubmitter_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing staged", func(t *testing.T) {
		p := &fakePoster{}
		res, err := NewSubmitter(openTestStage(t), p).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Nothing to sync", res.Message)
		assert.Empty(t, p.got)
	})

	t.Run("failure keeps rows", func(t *testing.T) {
		st := openTestStage(t)
		_, err := st.AddSale(ctx, models.SaleEntry{Date: day(1)})
		require.NoError(t, err)

		p := &fakePoster{err: errors.New("connection refused")}
		_, err = NewSubmitter(st, p).Sync(ctx)
		require.Error(t, err)

		c, err := st.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Sales)
	})

	t.Run("success drains stage", func(t *testing.T) {
		st := openTestStage(t)
		_, err := st.AddSale(ctx, models.SaleEntry{Date: day(1)})
		require.NoError(t, err)

		p := &fakePoster{result: models.SyncResult{Message: "Sync completed successfully", SavedSalesCount: 1}}
		res, err := NewSubmitter(st, p).Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.SavedSalesCount)
		require.Len(t, p.got, 1)

		c, err := st.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, Counts{}, c)
	})
}

func TestStage_AckKeepsChangesAfterSnapshot(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "in", in))
	require.NoError(t, st.AddClockEvent(ctx, "e2", "Bo", "in", in))
	require.NoError(t, st.AddClockEvent(ctx, "e2", "Bo", "out", in.Add(time.Hour)))
	id, err := st.UpsertInventory(ctx, models.SyncInventoryItem{ID: "65f000000000000000000001", Name: "Soap", CurrentStock: 3, MaxStock: 9})
	require.NoError(t, err)

	b, err := st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.Timesheet, 1)

	// Ann's older shift closes and the item changes before the server answers
	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "out", in.Add(2*time.Hour)))
	_, err = st.UpsertInventory(ctx, models.SyncInventoryItem{ID: id, Name: "Soap", CurrentStock: 2, MaxStock: 9})
	require.NoError(t, err)

	require.NoError(t, st.Ack(ctx, b, models.SyncResult{SavedTimesheetsCount: 1, SavedInventoryCount: 1}))

	b, err = st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.Timesheet, 1)
	assert.Equal(t, "e1", b.Request.Timesheet[0].EmployeeID)
	require.Len(t, b.Request.Inventory, 1)
	assert.Equal(t, 2.0, b.Request.Inventory[0].CurrentStock)
}

func TestStage_AckClearsAppliedRecordsOnly(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	const (
		item1 = "65f000000000000000000001"
		item2 = "65f000000000000000000002"
		item3 = "65f000000000000000000003"
	)

	require.NoError(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{ItemID: item1, NewStock: 5, UpdateType: models.UpdateUsage}))
	require.NoError(t, st.AddInventoryLog(ctx, models.SyncInventoryLog{ItemID: item2, NewStock: 7, UpdateType: models.UpdateRestock}))
	require.NoError(t, st.DeleteInventory(ctx, item1))
	require.NoError(t, st.DeleteInventory(ctx, item2))
	require.NoError(t, st.DeleteInventory(ctx, item3))

	b, err := st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.InventoryLogs, 2)

	one := 1
	require.NoError(t, st.Ack(ctx, b, models.SyncResult{
		SavedLogsCount:    1,
		DeletedItemsCount: 1,
		Errors: []models.ItemError{
			{Type: models.ErrTypeInventoryLog, Index: &one, ID: item2, Error: "write timeout"},
			{Type: models.ErrTypeInventoryDelete, ID: item2, Error: "write timeout"},
			// already gone on the server; nothing left to retry
			{Type: models.ErrTypeInventoryDelete, ID: item3, Error: models.ItemNotFoundPrefix + item3},
		},
	}))

	b, err = st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.InventoryLogs, 1)
	assert.Equal(t, item2, b.Request.InventoryLogs[0].ItemID)
	assert.Equal(t, []string{item2}, b.Request.DeletedInventoryIDs)
}

func TestStage_AckKeepsCategoryOnWholeCallFailure(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	_, err := st.AddSale(ctx, models.SaleEntry{Date: day(1)})
	require.NoError(t, err)
	_, err = st.AddSale(ctx, models.SaleEntry{Date: day(2)})
	require.NoError(t, err)

	b, err := st.Pending(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Ack(ctx, b, models.SyncResult{
		Errors: []models.ItemError{{Type: models.ErrTypeSales, Error: "connection reset"}},
	}))

	c, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Sales)
}

func TestStage_ShiftDatedByCounterCalendar(t *testing.T) {
	ctx := context.Background()
	st := openTestStage(t)
	st.loc = time.FixedZone("UTC+5", 5*60*60)

	in := time.Date(2024, 5, 1, 2, 0, 0, 0, st.loc)
	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "in", in))
	require.NoError(t, st.AddClockEvent(ctx, "e1", "Ann", "out", in.Add(6*time.Hour)))

	b, err := st.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, b.Request.Timesheet, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), b.Request.Timesheet[0].Date.Time)
}
