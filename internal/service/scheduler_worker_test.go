package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/memory"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerWorker_DefaultsInterval(t *testing.T) {
	worker := NewSchedulerWorker(newTestScheduler(memory.NewStore()), zerolog.Nop(), SchedulerWorkerConfig{})
	assert.Equal(t, DefaultSchedulerWorkerConfig().Interval, worker.interval)
}

func TestSchedulerWorker_RunOnce(t *testing.T) {
	store := memory.NewStore()
	fx := testutil.NewFixtures(t, store)
	account := fx.Account(workspaceID, "Checking", "0")
	bills := fx.Category(workspaceID, "Bills", domain.TransactionTypeExpense)
	fx.Recurring(workspaceID, account, bills, "4", domain.FrequencyMonthly, testutil.Date(2024, time.January, 15))

	worker := NewSchedulerWorker(newTestScheduler(store), zerolog.Nop(), SchedulerWorkerConfig{Interval: time.Hour})
	worker.now = func() time.Time { return testutil.Date(2024, time.January, 20) }

	result, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.GeneratedCount)
	assert.True(t, dec("-4").Equal(fx.Balance(account)))
}

func TestSchedulerWorker_StartStop(t *testing.T) {
	store := memory.NewStore()
	fx := testutil.NewFixtures(t, store)
	account := fx.Account(workspaceID, "Checking", "0")
	bills := fx.Category(workspaceID, "Bills", domain.TransactionTypeExpense)
	fx.Recurring(workspaceID, account, bills, "4", domain.FrequencyMonthly, testutil.Date(2024, time.January, 15))

	worker := NewSchedulerWorker(newTestScheduler(store), zerolog.Nop(), SchedulerWorkerConfig{Interval: time.Hour})
	worker.now = func() time.Time { return testutil.Date(2024, time.January, 20) }

	worker.Start(context.Background())
	worker.Start(context.Background())
	assert.Eventually(t, func() bool {
		return dec("-4").Equal(fx.Balance(account))
	}, time.Second, 5*time.Millisecond)

	worker.Stop()
	assert.False(t, worker.IsRunning())
	worker.Stop()
}

func TestSchedulerWorker_StopsWithContext(t *testing.T) {
	worker := NewSchedulerWorker(newTestScheduler(memory.NewStore()), zerolog.Nop(), SchedulerWorkerConfig{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	worker.Start(ctx)
	cancel()
	assert.Eventually(t, func() bool { return !worker.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestSchedulerWorker_ConcurrentStopAndRestart(t *testing.T) {
	worker := NewSchedulerWorker(newTestScheduler(memory.NewStore()), zerolog.Nop(), SchedulerWorkerConfig{Interval: time.Hour})

	// Never started
	worker.Stop()

	for round := 0; round < 3; round++ {
		worker.Start(context.Background())
		require.True(t, worker.IsRunning())

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker.Stop()
			}()
		}
		wg.Wait()
		assert.False(t, worker.IsRunning(), "round %d", round)
	}
}
