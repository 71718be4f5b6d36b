package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timebill/internal/application/port"
	"timebill/internal/domain/billing"
	"timebill/internal/domain/entity"
)

func TestTimeEntryService_Create(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	projectRepo := &mockProjectRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Project, error) {
			return &entity.Project{ID: id, UserID: "user-1"}, nil
		},
	}

	t.Run("closed manual entry skips the open-timer check", func(t *testing.T) {
		end := now.Add(-time.Hour)
		start := end.Add(-2 * time.Hour)
		entryRepo := &mockEntryRepo{
			getOpenByUserIDFunc: func(ctx context.Context, userID string) (*entity.TimeEntry, error) {
				t.Fatal("open check should not run for a closed entry")
				return nil, nil
			},
		}

		svc := NewTimeEntryService(entryRepo, projectRepo, immediateTx{}, clock, logger)
		entry, err := svc.Create(context.Background(), "user-1", TimeEntryInput{
			ProjectID: "proj-1",
			StartTime: start,
			EndTime:   &end,
			Billable:  true,
		})

		require.NoError(t, err)
		require.NotNil(t, entry.EndTime)
		assert.Equal(t, end, *entry.EndTime)
	})

	t.Run("open manual entry is subject to the single-timer rule", func(t *testing.T) {
		entryRepo := &mockEntryRepo{
			getOpenByUserIDFunc: func(ctx context.Context, userID string) (*entity.TimeEntry, error) {
				return &entity.TimeEntry{ID: "entry-open"}, nil
			},
		}

		svc := NewTimeEntryService(entryRepo, projectRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", TimeEntryInput{
			ProjectID: "proj-1",
			StartTime: now,
		})
		assert.ErrorIs(t, err, billing.ErrOpenTimerExists)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		end := now.Add(-time.Hour)
		svc := NewTimeEntryService(&mockEntryRepo{}, projectRepo, immediateTx{}, clock, logger)
		_, err := svc.Create(context.Background(), "user-1", TimeEntryInput{
			ProjectID: "proj-1",
			StartTime: now,
			EndTime:   &end,
		})

		var verr *billing.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "end_time")
	})
}

func TestTimeEntryService_Update(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	t.Run("reopening an entry while another timer runs conflicts", func(t *testing.T) {
		end := now.Add(-time.Hour)
		entryRepo := &mockEntryRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.TimeEntry, error) {
				return &entity.TimeEntry{
					ID:        id,
					UserID:    "user-1",
					ProjectID: "proj-1",
					StartTime: end.Add(-2 * time.Hour),
					EndTime:   &end,
				}, nil
			},
			updateFunc: func(ctx context.Context, e *entity.TimeEntry) error {
				if e.EndTime == nil {
					return billing.ErrOpenTimerExists
				}
				return nil
			},
		}

		svc := NewTimeEntryService(entryRepo, &mockProjectRepo{}, immediateTx{}, clock, logger)
		_, err := svc.Update(context.Background(), "entry-1", "user-1", TimeEntryInput{
			ProjectID: "proj-1",
			StartTime: end.Add(-2 * time.Hour),
			EndTime:   nil,
		})

		assert.ErrorIs(t, err, billing.ErrOpenTimerExists)
	})
}

func TestTimeEntryService_Delete(t *testing.T) {
	clock := fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()

	t.Run("refuses to delete an invoiced entry", func(t *testing.T) {
		invoiceID := "inv-1"
		deleted := false
		entryRepo := &mockEntryRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.TimeEntry, error) {
				return &entity.TimeEntry{ID: id, UserID: "user-1", InvoiceID: &invoiceID}, nil
			},
			deleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}

		svc := NewTimeEntryService(entryRepo, &mockProjectRepo{}, immediateTx{}, clock, logger)
		err := svc.Delete(context.Background(), "entry-1", "user-1")

		assert.ErrorIs(t, err, billing.ErrEntryInvoiced)
		assert.False(t, deleted)
	})

	t.Run("deletes an uninvoiced entry", func(t *testing.T) {
		deleted := false
		entryRepo := &mockEntryRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.TimeEntry, error) {
				return &entity.TimeEntry{ID: id, UserID: "user-1"}, nil
			},
			deleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}

		svc := NewTimeEntryService(entryRepo, &mockProjectRepo{}, immediateTx{}, clock, logger)
		err := svc.Delete(context.Background(), "entry-1", "user-1")

		require.NoError(t, err)
		assert.True(t, deleted)
	})
}

func TestTimeEntryService_List_QuickFilters(t *testing.T) {
	// Wednesday March 12 2025, 15:04 UTC.
	now := time.Date(2025, 3, 12, 15, 4, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	logger := zap.NewNop()

	var captured port.TimeEntryFilter
	entryRepo := &mockEntryRepo{
		listFunc: func(ctx context.Context, filter port.TimeEntryFilter) ([]*entity.TimeEntry, error) {
			captured = filter
			return nil, nil
		},
	}
	svc := NewTimeEntryService(entryRepo, &mockProjectRepo{}, immediateTx{}, clock, logger)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	// Inclusive end bound: the last instant before the next period starts.
	endOf := func(next time.Time) *time.Time {
		return ptrTime(next.Add(-time.Nanosecond))
	}

	cases := []struct {
		quick string
		start time.Time
		end   *time.Time
	}{
		{QuickToday, day(2025, 3, 12), nil},
		{QuickYesterday, day(2025, 3, 11), endOf(day(2025, 3, 12))},
		{QuickThisWeek, day(2025, 3, 9), nil},
		{QuickLastWeek, day(2025, 3, 2), endOf(day(2025, 3, 9))},
		{QuickThisMonth, day(2025, 3, 1), nil},
		{QuickLastMonth, day(2025, 2, 1), endOf(day(2025, 3, 1))},
	}

	for _, tc := range cases {
		t.Run(tc.quick, func(t *testing.T) {
			_, err := svc.List(context.Background(), "user-1", ListFilters{Quick: tc.quick})
			require.NoError(t, err)

			require.NotNil(t, captured.Start)
			assert.Equal(t, tc.start, *captured.Start)
			if tc.end == nil {
				assert.Nil(t, captured.End)
			} else {
				require.NotNil(t, captured.End)
				assert.Equal(t, *tc.end, *captured.End)
			}
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
