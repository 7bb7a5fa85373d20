package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailflow-io/mailflow/internal/model"
)

func TestNormalizeDefaults(t *testing.T) {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	s := model.Schedule{StartDate: start, EndDate: start.AddDate(0, 1, 0)}

	s.Normalize()

	assert.Equal(t, model.StatusCreated, s.Status)
	require.NotNil(t, s.NextSendingDate)
	assert.True(t, s.NextSendingDate.Equal(start))
}

func TestNormalizeKeepsExistingValues(t *testing.T) {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	s := model.Schedule{
		StartDate:       start,
		EndDate:         start.AddDate(0, 1, 0),
		Status:          model.StatusRunning,
		NextSendingDate: &next,
	}

	s.Normalize()

	assert.Equal(t, model.StatusRunning, s.Status)
	assert.True(t, s.NextSendingDate.Equal(next))
}
