package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusWith(approved ...Stage) MOUStatus {
	status := NewMOUStatus()
	now := time.Now().UTC()
	for _, stage := range approved {
		status.Set(stage, StageApproval{Approved: true, Date: &now})
	}
	return status
}

func TestStageForRole(t *testing.T) {
	cases := map[UserRole]Stage{
		RoleLegalAdmin:   StageLegal,
		RoleFacultyAdmin: StageFaculty,
		RoleSenateAdmin:  StageSenate,
		RoleUGCAdmin:     StageUGC,
	}
	for role, want := range cases {
		stage, ok := StageForRole(role)
		require.True(t, ok, "role %s", role)
		assert.Equal(t, want, stage)
	}

	for _, role := range []UserRole{RoleUser, RoleSuperAdmin, UserRole("AUDITOR")} {
		_, ok := StageForRole(role)
		assert.False(t, ok, "role %s should not map to a stage", role)
	}
}

func TestPendingForFirstStageHasNoPrecondition(t *testing.T) {
	assert.True(t, NewMOUStatus().PendingFor(RoleLegalAdmin))
	assert.False(t, statusWith(StageLegal).PendingFor(RoleLegalAdmin))
}

func TestPendingForRequiresPriorApprovals(t *testing.T) {
	// legal+faculty approved, senate not: pending for senate, not for ugc.
	status := statusWith(StageLegal, StageFaculty)
	assert.True(t, status.PendingFor(RoleSenateAdmin))
	assert.False(t, status.PendingFor(RoleUGCAdmin))

	// ugc becomes pending once senate approves.
	status.Set(StageSenate, StageApproval{Approved: true})
	assert.True(t, status.PendingFor(RoleUGCAdmin))
}

func TestPendingForSuperAdmin(t *testing.T) {
	assert.True(t, NewMOUStatus().PendingFor(RoleSuperAdmin))
	assert.True(t, statusWith(StageLegal, StageSenate, StageUGC).PendingFor(RoleSuperAdmin))
	assert.False(t, statusWith(StageLegal, StageFaculty, StageSenate, StageUGC).PendingFor(RoleSuperAdmin))
}

func TestPendingForNonAdminRole(t *testing.T) {
	assert.False(t, NewMOUStatus().PendingFor(RoleUser))
}

func TestPendingForExampleScenario(t *testing.T) {
	// legal and faculty approved, senate and ugc outstanding.
	status := statusWith(StageLegal, StageFaculty)
	assert.False(t, status.PendingFor(RoleLegalAdmin))
	assert.True(t, status.PendingFor(RoleSenateAdmin))
}

func TestPriorStagesApproved(t *testing.T) {
	status := statusWith(StageLegal)
	assert.True(t, status.PriorStagesApproved(StageLegal))
	assert.True(t, status.PriorStagesApproved(StageFaculty))
	assert.False(t, status.PriorStagesApproved(StageSenate))
	assert.False(t, status.PriorStagesApproved(StageUGC))
}

func TestStatusScanRoundTrip(t *testing.T) {
	status := statusWith(StageLegal, StageFaculty)
	raw, err := status.Value()
	require.NoError(t, err)

	var decoded MOUStatus
	require.NoError(t, decoded.Scan(raw))
	assert.True(t, decoded.Legal.Approved)
	assert.True(t, decoded.Faculty.Approved)
	assert.False(t, decoded.Senate.Approved)
	assert.False(t, decoded.UGC.Approved)
	require.NotNil(t, decoded.Legal.Date)
}

func TestStatusScanNilDefaultsAllStages(t *testing.T) {
	var decoded MOUStatus
	require.NoError(t, decoded.Scan(nil))
	for _, stage := range Stages() {
		assert.False(t, decoded.Get(stage).Approved)
		assert.Nil(t, decoded.Get(stage).Date)
	}
}

func TestHistoryScanRoundTrip(t *testing.T) {
	history := MOUHistory{
		{Action: HistoryActionCreated, Date: time.Now().UTC()},
		{Action: HistoryActionRejected, Stage: StageSenate, By: string(RoleSenateAdmin), Date: time.Now().UTC()},
	}
	raw, err := history.Value()
	require.NoError(t, err)

	var decoded MOUHistory
	require.NoError(t, decoded.Scan(raw))
	require.Len(t, decoded, 2)
	assert.Equal(t, HistoryActionRejected, decoded[1].Action)
	assert.Equal(t, StageSenate, decoded[1].Stage)
}
