// internal/historian/historian.go
package historian

import (
	"context"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionSource yields queued room actions. Pop returns nil, nil when nothing arrived within timeout.
type ActionSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.RoomAction, error)
}

// ActionSink persists a batch of room actions.
type ActionSink interface {
	InsertRoomActions(ctx context.Context, recs []models.RoomAction) error
}

// Service drains the room action queue into the database, flushing by batch size or interval.
type Service struct {
	Source ActionSource
	Sink   ActionSink
	Logger *logrus.Logger

	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration
	// MaxPending bounds how many unflushed actions are held while the sink is failing.
	MaxPending int

	batch []models.RoomAction
}

func New(source ActionSource, sink ActionSink, logger *logrus.Logger) *Service {
	return &Service{
		Source:     source,
		Sink:       sink,
		Logger:     logger,
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		PopTimeout: time.Second,
		MaxPending: 1000,
	}
}

// Run pops actions until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.FlushDelay)
	defer ticker.Stop()

	s.Logger.Info("Historian started")
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx)
			cancel()
			s.Logger.Info("Historian stopped")
			return

		case <-ticker.C:
			s.flush(ctx)

		default:
			rec, err := s.Source.Pop(ctx, s.PopTimeout)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.Logger.WithError(err).Error("Failed to pop room action")
				select {
				case <-ctx.Done():
				case <-time.After(s.PopTimeout):
				}
				continue
			}
			if rec == nil {
				continue
			}
			s.batch = append(s.batch, *rec)
			if len(s.batch) >= s.BatchSize {
				s.flush(ctx)
			}
		}
	}
}

// flush writes the pending batch. On failure the batch is kept for the next flush,
// trimmed to MaxPending by dropping the oldest actions.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	if err := s.Sink.InsertRoomActions(ctx, s.batch); err != nil {
		s.Logger.WithError(err).Errorf("Failed to flush %d room actions", len(s.batch))
		if over := len(s.batch) - s.MaxPending; s.MaxPending > 0 && over > 0 {
			s.Logger.Warnf("Dropping %d oldest room actions", over)
			s.batch = append(s.batch[:0], s.batch[over:]...)
		}
		return
	}
	s.Logger.Debugf("Flushed %d room actions to DB.", len(s.batch))
	s.batch = s.batch[:0]
}
