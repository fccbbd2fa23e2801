package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/availability-api/internal/config"
	"github.com/jwalitptl/availability-api/internal/model"
	"github.com/jwalitptl/availability-api/internal/repository/mocks"
	apperrors "github.com/jwalitptl/availability-api/pkg/errors"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/metrics"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

type fixture struct {
	schedules     *mocks.ScheduleRepository
	appointments  *mocks.AppointmentRepository
	consultations *mocks.ConsultationTypeRepository
	svc           Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		schedules:     new(mocks.ScheduleRepository),
		appointments:  new(mocks.AppointmentRepository),
		consultations: new(mocks.ConsultationTypeRepository),
	}
	f.svc = NewService(f.schedules, f.appointments, f.consultations, config.AvailabilityConfig{
		DefaultDurationMinutes: 30,
		MaxLookaheadDays:       60,
		BatchConcurrency:       4,
		MaxBatchSize:           3,
	}, logger.NewNop(), metrics.New("test", nil))
	return f
}

func mondayTemplate(profID uuid.UUID) *model.WeeklySchedule {
	return &model.WeeklySchedule{
		ProfessionalID:      profID,
		Weekday:             int(time.Monday),
		StartTime:           clock("09:00"),
		EndTime:             clock("17:00"),
		AppointmentDuration: 60,
		Active:              true,
	}
}

func (f *fixture) noException(profID uuid.UUID) {
	f.schedules.On("FindException", mock.Anything, profID, mock.Anything).Return(nil, nil)
}

func TestResolveWorkingWindow(t *testing.T) {
	profID := uuid.New()

	t.Run("template", func(t *testing.T) {
		f := newFixture(t)
		tpl := mondayTemplate(profID)
		tpl.LunchStart = clockPtr("12:00")
		tpl.LunchEnd = clockPtr("13:00")
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(tpl, nil)

		w := f.svc.ResolveWorkingWindow(context.Background(), profID, monday)
		require.NotNil(t, w)
		assert.Equal(t, clock("09:00"), w.Start)
		assert.Equal(t, clock("17:00"), w.End)
		assert.Equal(t, 60, w.Duration)
		assert.True(t, w.HasLunch())
		assert.Equal(t, model.WindowSourceTemplate, w.Source)
	})

	t.Run("all day exception wins over template", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.On("FindException", mock.Anything, profID, monday).
			Return(&model.ScheduleException{ProfessionalID: profID, Date: monday, AllDay: true}, nil)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(mondayTemplate(profID), nil).Maybe()

		assert.Nil(t, f.svc.ResolveWorkingWindow(context.Background(), profID, monday))
		f.schedules.AssertNotCalled(t, "FindActiveTemplate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("partial exception replaces hours without lunch", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.On("FindException", mock.Anything, profID, monday).Return(&model.ScheduleException{
			ProfessionalID: profID,
			Date:           monday,
			StartTime:      clockPtr("14:00"),
			EndTime:        clockPtr("16:00"),
		}, nil)

		w := f.svc.ResolveWorkingWindow(context.Background(), profID, monday)
		require.NotNil(t, w)
		assert.Equal(t, clock("14:00"), w.Start)
		assert.Equal(t, clock("16:00"), w.End)
		assert.Equal(t, 30, w.Duration)
		assert.False(t, w.HasLunch())
		assert.Equal(t, model.WindowSourceException, w.Source)
	})

	t.Run("exception without hours blocks the day", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.On("FindException", mock.Anything, profID, monday).Return(&model.ScheduleException{
			ProfessionalID: profID,
			Date:           monday,
			StartTime:      clockPtr("14:00"),
		}, nil)

		assert.Nil(t, f.svc.ResolveWorkingWindow(context.Background(), profID, monday))
	})

	t.Run("no template", func(t *testing.T) {
		f := newFixture(t)
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(nil, nil)

		assert.Nil(t, f.svc.ResolveWorkingWindow(context.Background(), profID, monday))
	})

	t.Run("lookup failure fails closed", func(t *testing.T) {
		f := newFixture(t)
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(nil, errors.New("permission denied"))

		assert.Nil(t, f.svc.ResolveWorkingWindow(context.Background(), profID, monday))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		f := newFixture(t)
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(mondayTemplate(profID), nil)

		w := f.svc.ResolveWorkingWindow(context.Background(), profID, monday.Add(15*time.Hour))
		require.NotNil(t, w)
		f.schedules.AssertCalled(t, "FindException", mock.Anything, profID, monday)
	})
}

func TestGetSlots_EndToEnd(t *testing.T) {
	f := newFixture(t)
	profID := uuid.New()
	f.noException(profID)
	f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(mondayTemplate(profID), nil)
	f.appointments.On("ListBookedIntervals", mock.Anything, profID, monday).
		Return([]model.BookedInterval{{StartTime: clock("10:00"), EndTime: clock("11:00")}}, nil)

	slots, err := f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday})
	require.NoError(t, err)
	require.Len(t, slots, 8)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, slotTimes(slots))
	for _, s := range slots {
		assert.Equal(t, s.Time != clock("10:00"), s.Available, s.Time.String())
	}
}

func TestGetSlots_EmptyDay(t *testing.T) {
	f := newFixture(t)
	profID := uuid.New()
	f.noException(profID)
	f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(nil, nil)

	slots, err := f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday})
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
	f.appointments.AssertNotCalled(t, "ListBookedIntervals", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSlots_AppointmentLookupFailsClosed(t *testing.T) {
	f := newFixture(t)
	profID := uuid.New()
	f.noException(profID)
	f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(mondayTemplate(profID), nil)
	f.appointments.On("ListBookedIntervals", mock.Anything, profID, monday).Return(nil, errors.New("connection reset"))

	slots, err := f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetSlots_ValidatesQuery(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetSlots(context.Background(), SlotQuery{Date: monday})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	_, err = f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: uuid.New()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	_, err = f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: uuid.New(), Date: monday, DurationMinutes: -5})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	_, err = f.svc.GetSlots(context.Background(), SlotQuery{ProfessionalID: uuid.New(), Date: monday, DurationMinutes: model.MaxDurationMinutes + 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	f.schedules.AssertNotCalled(t, "FindException", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateSlotsForProfessionals_Limits(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateSlotsForProfessionals(context.Background(), []uuid.UUID{uuid.New()}, monday, model.MaxDurationMinutes+1)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	ids := make([]uuid.UUID, 4)
	for i := range ids {
		ids[i] = uuid.New()
	}
	_, err = f.svc.GenerateSlotsForProfessionals(context.Background(), ids, monday, 30)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	f.schedules.AssertNotCalled(t, "FindException", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveDuration(t *testing.T) {
	profID := uuid.New()
	typeID := uuid.New()
	window := &model.WorkingWindow{Start: clock("09:00"), End: clock("17:00"), Duration: 60}
	override := 45

	tests := []struct {
		name     string
		query    SlotQuery
		window   *model.WorkingWindow
		setup    func(f *fixture)
		expected int
		errCode  apperrors.ErrorCode
	}{
		{
			name:     "explicit duration wins",
			query:    SlotQuery{ProfessionalID: profID, DurationMinutes: 20, ConsultationTypeID: &typeID},
			window:   window,
			expected: 20,
		},
		{
			name:   "professional override",
			query:  SlotQuery{ProfessionalID: profID, ConsultationTypeID: &typeID},
			window: window,
			setup: func(f *fixture) {
				f.consultations.On("FindProfessionalOverride", mock.Anything, profID, typeID).
					Return(&model.ProfessionalConsultationType{DurationMinutes: &override}, nil)
			},
			expected: 45,
		},
		{
			name:   "consultation type default",
			query:  SlotQuery{ProfessionalID: profID, ConsultationTypeID: &typeID},
			window: window,
			setup: func(f *fixture) {
				f.consultations.On("FindProfessionalOverride", mock.Anything, profID, typeID).Return(nil, nil)
				f.consultations.On("FindType", mock.Anything, typeID).
					Return(&model.ConsultationType{DurationMinutes: 50, Active: true}, nil)
			},
			expected: 50,
		},
		{
			name:   "unknown consultation type",
			query:  SlotQuery{ProfessionalID: profID, ConsultationTypeID: &typeID},
			window: window,
			setup: func(f *fixture) {
				f.consultations.On("FindProfessionalOverride", mock.Anything, profID, typeID).Return(nil, nil)
				f.consultations.On("FindType", mock.Anything, typeID).Return(nil, nil)
			},
			errCode: apperrors.ErrNotFound,
		},
		{
			name:   "consultation lookup failure yields no duration",
			query:  SlotQuery{ProfessionalID: profID, ConsultationTypeID: &typeID},
			window: window,
			setup: func(f *fixture) {
				f.consultations.On("FindProfessionalOverride", mock.Anything, profID, typeID).Return(nil, errors.New("timeout"))
			},
			expected: 0,
		},
		{
			name:     "window duration",
			query:    SlotQuery{ProfessionalID: profID},
			window:   window,
			expected: 60,
		},
		{
			name:     "configured default",
			query:    SlotQuery{ProfessionalID: profID},
			window:   &model.WorkingWindow{Start: clock("09:00"), End: clock("17:00")},
			expected: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			d, err := f.svc.ResolveDuration(context.Background(), tt.query, tt.window)
			if tt.errCode != 0 {
				assert.True(t, apperrors.HasCode(err, tt.errCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestGenerateSlotsForProfessionals_Isolation(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("lookup error", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.On("FindException", mock.Anything, a, monday).Return(nil, errors.New("access denied"))
		f.noException(b)
		f.schedules.On("FindActiveTemplate", mock.Anything, b, time.Monday).Return(mondayTemplate(b), nil)
		f.appointments.On("ListBookedIntervals", mock.Anything, b, monday).Return([]model.BookedInterval{}, nil)

		result, err := f.svc.GenerateSlotsForProfessionals(context.Background(), []uuid.UUID{a, b}, monday, 0)
		require.NoError(t, err)
		require.Contains(t, result, a)
		assert.Empty(t, result[a])
		assert.Len(t, result[b], 8)
	})

	t.Run("panic", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.On("FindException", mock.Anything, a, monday).Return(nil, nil).Run(func(mock.Arguments) {
			panic("driver exploded")
		})
		f.noException(b)
		f.schedules.On("FindActiveTemplate", mock.Anything, b, time.Monday).Return(mondayTemplate(b), nil)
		f.appointments.On("ListBookedIntervals", mock.Anything, b, monday).Return([]model.BookedInterval{}, nil)

		result, err := f.svc.GenerateSlotsForProfessionals(context.Background(), []uuid.UUID{a, b, b}, monday, 30)
		require.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Empty(t, result[a])
		assert.Len(t, result[b], 16)
	})
}

func TestFindNextAvailableSlot(t *testing.T) {
	profID := uuid.New()

	t.Run("skips full and empty days", func(t *testing.T) {
		f := newFixture(t)
		tuesday := monday.AddDate(0, 0, 1)
		wednesday := monday.AddDate(0, 0, 2)

		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(&model.WeeklySchedule{
			StartTime: clock("09:00"), EndTime: clock("10:00"), AppointmentDuration: 60, Active: true,
		}, nil)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Tuesday).Return(nil, nil)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Wednesday).Return(mondayTemplate(profID), nil)
		f.appointments.On("ListBookedIntervals", mock.Anything, profID, monday).
			Return([]model.BookedInterval{{StartTime: clock("09:00"), EndTime: clock("10:00")}}, nil)
		f.appointments.On("ListBookedIntervals", mock.Anything, profID, wednesday).
			Return([]model.BookedInterval{{StartTime: clock("09:00"), EndTime: clock("10:00")}}, nil)

		next, err := f.svc.FindNextAvailableSlot(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday}, 7)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, wednesday, next.Date)
		assert.Equal(t, clock("10:00"), next.Time)
		f.appointments.AssertNotCalled(t, "ListBookedIntervals", mock.Anything, profID, tuesday)
	})

	t.Run("nothing within range", func(t *testing.T) {
		f := newFixture(t)
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, mock.Anything).Return(nil, nil)

		next, err := f.svc.FindNextAvailableSlot(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday}, 3)
		require.NoError(t, err)
		assert.Nil(t, next)
		f.schedules.AssertNumberOfCalls(t, "FindActiveTemplate", 3)
	})

	t.Run("range is capped", func(t *testing.T) {
		f := newFixture(t)
		f.noException(profID)
		f.schedules.On("FindActiveTemplate", mock.Anything, profID, mock.Anything).Return(nil, nil)

		_, err := f.svc.FindNextAvailableSlot(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday}, 365)
		require.NoError(t, err)
		f.schedules.AssertNumberOfCalls(t, "FindActiveTemplate", 60)
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.svc.FindNextAvailableSlot(ctx, SlotQuery{ProfessionalID: profID, Date: monday}, 5)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGetWeekSummary(t *testing.T) {
	f := newFixture(t)
	profID := uuid.New()
	f.noException(profID)
	f.schedules.On("FindActiveTemplate", mock.Anything, profID, time.Monday).Return(mondayTemplate(profID), nil)
	f.schedules.On("FindActiveTemplate", mock.Anything, profID, mock.Anything).Return(nil, nil)
	f.appointments.On("ListBookedIntervals", mock.Anything, profID, monday).
		Return([]model.BookedInterval{{StartTime: clock("10:00"), EndTime: clock("11:00")}}, nil)

	summary, err := f.svc.GetWeekSummary(context.Background(), SlotQuery{ProfessionalID: profID, Date: monday})
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, monday, summary[0].Date)
	assert.Equal(t, 8, summary[0].Total)
	assert.Equal(t, 7, summary[0].Available)
	for _, day := range summary[1:] {
		assert.Zero(t, day.Total)
		assert.Zero(t, day.Available)
	}
	assert.Equal(t, monday.AddDate(0, 0, 6), summary[6].Date)
}
