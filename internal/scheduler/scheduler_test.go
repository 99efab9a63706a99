package scheduler

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	runs int
	err  error
}

func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func (j *stubJob) Name() string { return "stub" }

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &stubJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	job.err = fmt.Errorf("boom")
	require.Error(t, s.RunNow(job))
	assert.Equal(t, 2, job.runs)
}

func TestScheduler_AddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 7 * * MON-FRI", &stubJob{}))
	require.NoError(t, s.AddJob("@hourly", &stubJob{}))
	require.Error(t, s.AddJob("not a schedule", &stubJob{}))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &stubJob{}))

	s.Start()
	s.Stop()
}
