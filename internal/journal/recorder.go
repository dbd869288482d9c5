package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
)

// Store: куда пишутся пачки записей (postgres.JournalRepository).
type Store interface {
	Insert(ctx context.Context, entries []domain.JournalEntry) error
}

type Config struct {
	Buffer     int           // ёмкость очереди
	BatchSize  int           // максимум записей в одной вставке
	FlushEvery time.Duration // как часто сбрасывать неполную пачку
}

// Recorder пишет журнал по принципу fire-and-forget. Record никогда не блокирует комнату,
// при переполнении очереди запись теряется.
type Recorder struct {
	store Store
	cfg   Config
	ch    chan domain.JournalEntry

	dropped atomic.Int64
	written atomic.Int64
}

func NewRecorder(store Store, cfg Config) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = time.Second
	}
	return &Recorder{
		store: store,
		cfg:   cfg,
		ch:    make(chan domain.JournalEntry, cfg.Buffer),
	}
}

func (r *Recorder) Record(e domain.JournalEntry) {
	select {
	case r.ch <- e:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			slog.Warn("journal queue full, entries dropped", "dropped_total", n, "room", e.RoomID)
		}
	}
}

func (r *Recorder) Dropped() int64 { return r.dropped.Load() }
func (r *Recorder) Written() int64 { return r.written.Load() }

// Run пишет записи пачками до отмены ctx, затем сбрасывает то, что осталось в очереди.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.FlushEvery)
	defer ticker.Stop()

	batch := make([]domain.JournalEntry, 0, r.cfg.BatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.store.Insert(ctx, batch); err != nil {
			slog.Warn("journal insert failed", "count", len(batch), "err", err)
		} else {
			r.written.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-r.ch:
			batch = append(batch, e)
			if len(batch) >= r.cfg.BatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			// ctx уже отменён: даём последней вставке немного времени
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				select {
				case e := <-r.ch:
					batch = append(batch, e)
					if len(batch) >= r.cfg.BatchSize {
						flush(drainCtx)
					}
				default:
					flush(drainCtx)
					return nil
				}
			}
		}
	}
}
