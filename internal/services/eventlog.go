package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/pkg/userlock"
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/device"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// AppendInput describes one progress-affecting user action.
type AppendInput struct {
	UserID        uuid.UUID
	HabitID       uuid.UUID
	DateKey       string
	EventType     string
	ProgressDelta int
	// OperationID is the caller's idempotency token; one is generated
	// when absent, in which case retries are not deduplicated.
	OperationID string
	Note        string
	Metadata    map[string]interface{}
}

// EventLogService is the single write path into the progress event log.
type EventLogService interface {
	Append(ctx context.Context, in AppendInput) (*types.ProgressEvent, error)
}

type eventLogService struct {
	log      *logger.Logger
	txr      aggregates.TxRunner
	locks    *userlock.Registry
	clock    clock.Clock
	device   device.Provider
	events   progressrepo.EventRepo
	seq      progressrepo.SequenceRepo
	location *time.Location
}

func NewEventLogService(
	baseLog *logger.Logger,
	txr aggregates.TxRunner,
	locks *userlock.Registry,
	clk clock.Clock,
	dev device.Provider,
	events progressrepo.EventRepo,
	seq progressrepo.SequenceRepo,
	loc *time.Location,
) EventLogService {
	if loc == nil {
		loc = time.Local
	}
	return &eventLogService{
		log:      baseLog.With("service", "EventLogService"),
		txr:      txr,
		locks:    locks,
		clock:    clk,
		device:   dev,
		events:   events,
		seq:      seq,
		location: loc,
	}
}

func (s *eventLogService) Append(ctx context.Context, in AppendInput) (*types.ProgressEvent, error) {
	if in.UserID == uuid.Nil || in.HabitID == uuid.Nil {
		return nil, fmt.Errorf("%w: user and habit are required", apperr.ErrInvalidArgument)
	}
	switch in.EventType {
	case progress.EventIncrement, progress.EventDecrement, progress.EventToggleComplete:
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", apperr.ErrInvalidArgument, in.EventType)
	}
	if !progress.ValidDateKey(in.DateKey) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, in.DateKey)
	}

	utcStart, utcEnd, err := progress.DayWindow(in.DateKey, s.location)
	if err != nil {
		return nil, err
	}

	opID := in.OperationID
	if opID == "" {
		opID = uuid.New().String()
	}

	var meta datatypes.JSON
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", apperr.ErrInvalidArgument, err)
		}
		meta = datatypes.JSON(raw)
	}

	deviceID := s.device.DeviceID()

	var out *types.ProgressEvent
	inserted := false
	err = s.locks.Do(in.UserID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			existing, err := s.events.GetByOperationID(dbc, in.UserID, opID)
			if err != nil {
				return err
			}
			if existing != nil {
				// Duplicate submission: hand back the original event.
				out = existing
				return nil
			}

			seq, err := s.seq.Next(dbc, deviceID, in.DateKey)
			if err != nil {
				return err
			}
			key := progress.EventKey{
				HabitID:        in.HabitID,
				DateKey:        in.DateKey,
				DeviceID:       deviceID,
				SequenceNumber: seq,
			}
			ev := &types.ProgressEvent{
				ID:             key.UUID(),
				UserID:         in.UserID,
				HabitID:        in.HabitID,
				DateKey:        in.DateKey,
				DeviceID:       deviceID,
				SequenceNumber: seq,
				EventType:      in.EventType,
				ProgressDelta:  in.ProgressDelta,
				OperationID:    opID,
				TimezoneID:     s.location.String(),
				UTCDayStart:    utcStart,
				UTCDayEnd:      utcEnd,
				Note:           in.Note,
				Metadata:       meta,
				CreatedAt:      s.clock.Now(),
			}
			if err := s.events.Insert(dbc, ev); err != nil {
				return err
			}
			out = ev
			inserted = true
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if inserted {
		observability.Current().IncEventAppended(in.EventType)
		s.log.Debug("Appended progress event",
			"habit_id", in.HabitID.String(),
			"date_key", in.DateKey,
			"event_type", in.EventType,
			"delta", in.ProgressDelta,
			"sequence", out.SequenceNumber,
		)
	}
	return out, nil
}
