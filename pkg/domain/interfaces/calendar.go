package interfaces

import (
	"context"
	"time"

	"github.com/minerva-bot/minerva/pkg/domain/model"
)

// CalendarSource provides calendar records starting within [from, to)
type CalendarSource interface {
	FetchEvents(ctx context.Context, from, to time.Time) ([]model.RawEvent, error)
}
