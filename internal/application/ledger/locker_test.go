package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemLocker_Exclusion(t *testing.T) {
	locker := ledger.NewItemLocker()
	release, err := locker.Acquire(context.Background(), "item-1")
	require.NoError(t, err)

	// Segundo Acquire sobre el mismo ítem debe esperar hasta el timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "item-1")
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	release()

	// Liberado, vuelve a estar disponible.
	release2, err := locker.Acquire(context.Background(), "item-1")
	require.NoError(t, err)
	release2()
}

func TestItemLocker_ItemsDistintosNoSeBloquean(t *testing.T) {
	locker := ledger.NewItemLocker()
	releaseA, err := locker.Acquire(context.Background(), "item-a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Acquire(ctx, "item-b")
	require.NoError(t, err, "ítems distintos no comparten sección exclusiva")
	releaseB()
}

func TestItemLocker_SerializaGoroutines(t *testing.T) {
	locker := ledger.NewItemLocker()

	const n = 20
	var inSection, max int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "item-1")
			if err != nil {
				return
			}
			mu.Lock()
			inSection++
			if inSection > max {
				max = inSection
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inSection--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, max, "nunca debe haber más de una goroutine en la sección")
}
