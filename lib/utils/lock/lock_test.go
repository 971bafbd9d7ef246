package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithDelay(t *testing.T) {
	t.Run(`свободный ключ выполняется сразу`, func(t *testing.T) {
		executed := false
		ok, err := WithDelay(context.Background(), "key-1", time.Second, func() error {
			executed = true
			return nil
		})
		require.Nil(t, err)
		require.True(t, ok)
		require.True(t, executed)
	})

	t.Run(`занятый ключ - отказ по таймауту`, func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = WithDelay(context.Background(), "key-2", time.Second, func() error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started

		ok, err := WithDelay(context.Background(), "key-2", 50*time.Millisecond, func() error {
			return nil
		})
		require.Nil(t, err)
		require.False(t, ok)

		close(release)
		wg.Wait()

		// после освобождения ключ снова доступен
		ok, err = WithDelay(context.Background(), "key-2", time.Second, func() error { return nil })
		require.Nil(t, err)
		require.True(t, ok)
	})

	t.Run(`ошибка из критической секции возвращается`, func(t *testing.T) {
		wantErr := context.DeadlineExceeded
		ok, err := WithDelay(context.Background(), "key-3", time.Second, func() error {
			return wantErr
		})
		require.True(t, ok)
		require.ErrorIs(t, err, wantErr)
	})
}
