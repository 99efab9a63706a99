package analysis

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RefreshJob re-runs the default analysis on a schedule so the latest
// result stays current without a client having to trigger it.
type RefreshJob struct {
	service *Service
	log     zerolog.Logger
}

// NewRefreshJob creates a new analysis refresh job.
func NewRefreshJob(service *Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		log:     log.With().Str("job", "analysis_refresh").Logger(),
	}
}

// Name returns the job name for scheduling and logging.
func (j *RefreshJob) Name() string {
	return "analysis_refresh"
}

// Run executes the default analysis request.
func (j *RefreshJob) Run() error {
	req, ok := j.service.DefaultRequest()
	if !ok {
		return fmt.Errorf("no default universe configured")
	}

	result, err := j.service.Run(req)
	if err != nil {
		return fmt.Errorf("scheduled analysis failed: %w", err)
	}

	j.log.Info().
		Str("run_id", result.RunID).
		Int("instruments", len(result.Instruments)).
		Msg("Scheduled analysis completed")

	return nil
}
