package workflow

import (
	"testing"

	"mountain-sentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, model.StatusApproved, InitialStatus(true))
	assert.Equal(t, model.StatusPending, InitialStatus(false))
}

func TestApprove(t *testing.T) {
	got, err := Approve(model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got)

	got, err = Approve(model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got)

	_, err = Approve("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StatusPending, model.StatusApproved))
	assert.True(t, CanTransition(model.StatusApproved, model.StatusApproved))
	assert.True(t, CanTransition(model.StatusPending, model.StatusPending))
	assert.False(t, CanTransition(model.StatusApproved, model.StatusPending))
	assert.False(t, CanTransition("", model.StatusApproved))
}

func TestSplitDashboard(t *testing.T) {
	reports := []model.Report{
		{Description: "citizen approved", Status: model.StatusApproved, ReporterID: "u1"},
		{Description: "citizen pending", Status: model.StatusPending, ReporterID: "u2"},
		{Description: "flagged alert", Status: model.StatusApproved, IsAdminReport: true},
		{Description: "legacy alert", Status: model.StatusApproved, ReporterID: model.AdminReporterID},
	}

	citizen, alerts := SplitDashboard(reports)
	require.Len(t, citizen, 1)
	assert.Equal(t, "citizen approved", citizen[0].Description)
	require.Len(t, alerts, 2)
	assert.Equal(t, "flagged alert", alerts[0].Description)
	assert.Equal(t, "legacy alert", alerts[1].Description)

	citizen, alerts = SplitDashboard(nil)
	assert.NotNil(t, citizen)
	assert.NotNil(t, alerts)
}
