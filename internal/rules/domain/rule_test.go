package domain

import (
	"testing"
	"time"

	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validRule() Rule {
	provider := uuid.New()
	return Rule{
		ID:                uuid.New(),
		OrganizationID:    uuid.New(),
		Name:              "Quarterly inspection",
		WorkType:          WorkTypeInspection,
		IsInternal:        false,
		ServiceProviderID: &provider,
		Target:            Target{Type: TargetAsset, IDs: []uuid.UUID{uuid.New()}},
		Interval:          Interval{Type: IntervalMonths, Value: 3},
		StartDate:         date(2025, time.January, 1),
		NextDueDate:       date(2025, time.January, 1),
		LeadTimeDays:      7,
		RescheduleMode:    RescheduleActualCompletion,
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rule)
		ok     bool
	}{
		{"valid", func(*Rule) {}, true},
		{"external without provider", func(r *Rule) { r.ServiceProviderID = nil }, false},
		{"internal without provider", func(r *Rule) { r.ServiceProviderID = nil; r.IsInternal = true }, true},
		{"custom without label", func(r *Rule) { r.WorkType = WorkTypeCustom }, false},
		{"custom with label", func(r *Rule) { r.WorkType = WorkTypeCustom; r.CustomWorkType = "Filter swap" }, true},
		{"no target ids", func(r *Rule) { r.Target.IDs = nil }, false},
		{"unknown target", func(r *Rule) { r.Target.Type = "site" }, false},
		{"zero interval", func(r *Rule) { r.Interval.Value = 0 }, false},
		{"negative lead time", func(r *Rule) { r.LeadTimeDays = -1 }, false},
		{"missing start", func(r *Rule) { r.StartDate = time.Time{} }, false},
		{"unknown reschedule mode", func(r *Rule) { r.RescheduleMode = "never" }, false},
		{"blank name", func(r *Rule) { r.Name = "  " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := r.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindValidation), "want validation error, got %v", err)
		})
	}
}

func TestScheduleChanged(t *testing.T) {
	base := validRule()

	renamed := base
	renamed.Name = "Renamed"
	assert.False(t, ScheduleChanged(base, renamed))

	reordered := base
	reordered.Target = Target{Type: TargetAsset, IDs: append([]uuid.UUID{}, base.Target.IDs...)}
	assert.False(t, ScheduleChanged(base, reordered))

	changes := map[string]func(r *Rule){
		"interval value": func(r *Rule) { r.Interval.Value = 6 },
		"interval type":  func(r *Rule) { r.Interval.Type = IntervalDays },
		"start date":     func(r *Rule) { r.StartDate = r.StartDate.AddDate(0, 0, 1) },
		"lead time":      func(r *Rule) { r.LeadTimeDays = 14 },
		"target":         func(r *Rule) { r.Target.IDs = []uuid.UUID{uuid.New()} },
		"internal flag":  func(r *Rule) { r.IsInternal = true },
	}
	for name, mutate := range changes {
		t.Run(name, func(t *testing.T) {
			after := base
			after.Target.IDs = append([]uuid.UUID{}, base.Target.IDs...)
			mutate(&after)
			assert.True(t, ScheduleChanged(base, after))
		})
	}
}

func TestNextDueAfterCompletion(t *testing.T) {
	r := validRule()
	r.Interval = Interval{Type: IntervalMonths, Value: 1}
	r.NextDueDate = date(2025, time.February, 1)
	actualEnd := time.Date(2025, time.February, 10, 14, 30, 0, 0, time.UTC)

	r.RescheduleMode = RescheduleActualCompletion
	got, err := r.NextDueAfterCompletion(actualEnd)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 10), got)

	r.RescheduleMode = RescheduleReplanOnce
	got, err = r.NextDueAfterCompletion(actualEnd)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 1), got)
}
