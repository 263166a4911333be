package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/entity"
)

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func pendingDuel(id string, creator uint64) *entity.Duel {
	return &entity.Duel{
		ID:             id,
		User1ID:        creator,
		Status:         entity.DuelStatusPending,
		TimeLimit:      600,
		ChallengesSlug: entity.StringList{"sum"},
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
}

func joinPatch(user2 uint64, at time.Time) DuelPatch {
	endedAt := at.Add(600 * time.Second)
	return DuelPatch{
		Status:    entity.DuelStatusActive,
		User2ID:   &user2,
		StartedAt: &at,
		EndedAt:   &endedAt,
		UpdatedAt: at,
	}
}

func TestDuelInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))

	require.NoError(t, repo.Insert(ctx, pendingDuel("d-1", 1)))

	got, err := repo.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DuelStatusPending, got.Status)
	assert.Nil(t, got.User2ID)
	assert.Equal(t, entity.StringList{"sum"}, got.ChallengesSlug)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDuelInsertRejectsNonPending(t *testing.T) {
	repo := NewDuelRepository(newTestDB(t))
	duel := pendingDuel("d-1", 1)
	duel.Status = entity.DuelStatusActive
	assert.Error(t, repo.Insert(context.Background(), duel))
}

func TestCompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, pendingDuel("d-1", 1)))

	require.NoError(t, repo.CompareAndSwapStatus(ctx, "d-1", entity.DuelStatusPending, joinPatch(2, baseTime)))

	// 状态已变化, 再次以 pending 为期望值更新影响 0 行
	err := repo.CompareAndSwapStatus(ctx, "d-1", entity.DuelStatusPending, joinPatch(3, baseTime))
	assert.ErrorIs(t, err, ErrStoreConflict)

	got, err := repo.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DuelStatusActive, got.Status)
	require.NotNil(t, got.User2ID)
	assert.Equal(t, uint64(2), *got.User2ID)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, 600*time.Second, got.EndedAt.Sub(*got.StartedAt))

	err = repo.CompareAndSwapStatus(ctx, "missing", entity.DuelStatusPending, joinPatch(3, baseTime))
	assert.ErrorIs(t, err, ErrStoreConflict)
}

func TestCompareAndSwapStatusRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, pendingDuel("d-1", 1)))

	err := repo.CompareAndSwapStatus(ctx, "d-1", entity.DuelStatusPending, DuelPatch{Status: entity.DuelStatusCompleted})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = repo.CompareAndSwapStatus(ctx, "d-1", entity.DuelStatusCompleted, DuelPatch{Status: entity.DuelStatusActive})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompareAndSwapStatusConcurrentJoin(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))
	require.NoError(t, repo.Insert(ctx, pendingDuel("d-1", 1)))

	const racers = 16
	var wg sync.WaitGroup
	var wins atomic.Int32
	var winner atomic.Uint64
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			err := repo.CompareAndSwapStatus(ctx, "d-1", entity.DuelStatusPending, joinPatch(user, baseTime))
			if err == nil {
				wins.Add(1)
				winner.Store(user)
				return
			}
			assert.True(t, errors.Is(err, ErrStoreConflict), err)
		}(uint64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	got, err := repo.Get(ctx, "d-1")
	require.NoError(t, err)
	require.NotNil(t, got.User2ID)
	assert.Equal(t, winner.Load(), *got.User2ID)
}

func TestListOverdueAndStalePending(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))

	require.NoError(t, repo.Insert(ctx, pendingDuel("pending-old", 1)))
	fresh := pendingDuel("pending-new", 1)
	fresh.CreatedAt = baseTime.Add(2 * time.Hour)
	require.NoError(t, repo.Insert(ctx, fresh))

	require.NoError(t, repo.Insert(ctx, pendingDuel("active-overdue", 2)))
	require.NoError(t, repo.CompareAndSwapStatus(ctx, "active-overdue", entity.DuelStatusPending, joinPatch(3, baseTime)))
	require.NoError(t, repo.Insert(ctx, pendingDuel("active-running", 4)))
	require.NoError(t, repo.CompareAndSwapStatus(ctx, "active-running", entity.DuelStatusPending, joinPatch(5, baseTime.Add(time.Hour))))

	now := baseTime.Add(30 * time.Minute)
	ids, err := repo.ListOverdueIDs(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"active-overdue"}, ids)

	ids, err = repo.ListStalePendingIDs(ctx, baseTime.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending-old"}, ids)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewDuelRepository(newTestDB(t))

	for i, id := range []string{"a", "b", "c"} {
		d := pendingDuel(id, 1)
		d.CreatedAt = baseTime.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, d))
	}
	require.NoError(t, repo.Insert(ctx, pendingDuel("other", 9)))
	require.NoError(t, repo.CompareAndSwapStatus(ctx, "other", entity.DuelStatusPending, joinPatch(1, baseTime)))

	duels, total, err := repo.ListByUser(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, duels, 2)
	assert.Equal(t, "c", duels[0].ID)
	assert.Equal(t, "b", duels[1].ID)

	duels, _, err = repo.ListByUser(ctx, 9, 1, 10)
	require.NoError(t, err)
	require.Len(t, duels, 1)
	assert.Equal(t, "other", duels[0].ID)
}
