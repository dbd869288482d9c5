package engine

import (
	"context"
	"log/slog"
	"time"
)

// RunReaper периодически удаляет пустые неактивные комнаты. Блокирует до отмены ctx.
// idle <= 0 выключает удаление.
func RunReaper(ctx context.Context, reg *Registry, every, idle time.Duration) {
	if idle <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := reg.Reap(idle); len(ids) > 0 {
				slog.Info("rooms reaped", "count", len(ids), "rooms", ids, "left", reg.Len())
			}
		}
	}
}
