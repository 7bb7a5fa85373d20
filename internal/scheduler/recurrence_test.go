package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

func TestNextDate(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		freq    model.Frequency
		want    time.Time
	}{
		{"daily", date(2024, time.March, 15), model.FrequencyDaily, date(2024, time.March, 16)},
		{"daily across month end", date(2024, time.January, 31), model.FrequencyDaily, date(2024, time.February, 1)},
		{"weekly", date(2024, time.March, 15), model.FrequencyWeekly, date(2024, time.March, 22)},
		{"weekly across year end", date(2023, time.December, 28), model.FrequencyWeekly, date(2024, time.January, 4)},
		{"monthly", date(2024, time.March, 15), model.FrequencyMonthly, date(2024, time.April, 15)},
		{"monthly jan 31 leap year", date(2024, time.January, 31), model.FrequencyMonthly, date(2024, time.February, 29)},
		{"monthly jan 31 non-leap", date(2023, time.January, 31), model.FrequencyMonthly, date(2023, time.February, 28)},
		{"monthly mar 31 clamps to apr 30", date(2024, time.March, 31), model.FrequencyMonthly, date(2024, time.April, 30)},
		{"monthly dec rolls into january", date(2024, time.December, 31), model.FrequencyMonthly, date(2025, time.January, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scheduler.NextDate(tt.current, tt.freq)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextDateStrictlyForward(t *testing.T) {
	freqs := []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly}

	// walk a year of dates, every frequency must move strictly forward
	d := date(2024, time.January, 1)
	for i := 0; i < 366; i++ {
		for _, f := range freqs {
			next := scheduler.NextDate(d, f)
			assert.True(t, next.After(d), "%s from %v did not advance", f, d)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	stamped := time.Date(2024, time.June, 10, 23, 45, 12, 0, loc)
	assert.Equal(t, date(2024, time.June, 10), scheduler.DateOnly(stamped))
	assert.True(t, scheduler.SameDate(stamped, date(2024, time.June, 10)))
}
