package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/pkg/types"
)

func mustAppointment(t *testing.T, s *Store, practitionerID int64, start time.Time, durationMin int) *types.Appointment {
	t.Helper()
	rec, err := s.Appointments().Create(context.Background(), &types.Appointment{
		PatientID:      1,
		PractitionerID: practitionerID,
		Start:          start,
		DurationMin:    durationMin,
	})
	require.NoError(t, err)
	return rec.(*types.Appointment)
}

func TestAppointmentDefaults(t *testing.T) {
	s := setupStore(t)
	a := mustAppointment(t, s, 1, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 0)
	assert.Equal(t, types.AppointmentScheduled, a.Status)
	assert.Equal(t, 45, a.DurationMin)
}

func TestAppointmentConflicts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	nine := mustAppointment(t, s, 7, day.Add(9*time.Hour), 60)           // 09:00-10:00
	mustAppointment(t, s, 7, day.Add(11*time.Hour), 45)                  // 11:00-11:45
	otherPractitioner := mustAppointment(t, s, 8, day.Add(9*time.Hour), 60)

	// 09:30-10:15 overlaps the 09:00 slot of practitioner 7 only.
	conflicts, err := s.Appointments().Conflicts(ctx, 7,
		day.Add(9*time.Hour+30*time.Minute), day.Add(10*time.Hour+15*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, nine.ID, conflicts[0].ID)
	assert.NotEqual(t, otherPractitioner.ID, conflicts[0].ID)

	// Excluding the conflicting id (rescheduling it) clears the check.
	conflicts, err = s.Appointments().Conflicts(ctx, 7,
		day.Add(9*time.Hour+30*time.Minute), day.Add(10*time.Hour), nine.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Back-to-back slots do not conflict.
	conflicts, err = s.Appointments().Conflicts(ctx, 7,
		day.Add(10*time.Hour), day.Add(11*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Cancelled appointments never block a slot.
	_, err = s.Appointments().Update(ctx, nine.ID, map[string]any{"status": types.AppointmentCancelled})
	require.NoError(t, err)
	conflicts, err = s.Appointments().Conflicts(ctx, 7,
		day.Add(9*time.Hour), day.Add(10*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestAppointmentInRange(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mustAppointment(t, s, 1, day.Add(14*time.Hour), 45)
	mustAppointment(t, s, 1, day.Add(9*time.Hour), 45)
	mustAppointment(t, s, 1, day.AddDate(0, 0, 7).Add(9*time.Hour), 45) // next week

	week, err := s.Appointments().InRange(ctx, day, day.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.True(t, week[0].Start.Before(week[1].Start), "range queries are soonest first")
}
