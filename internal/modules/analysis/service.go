package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/regression"
	"github.com/aristath/stylescope/internal/modules/returns"
)

// PriceProvider fetches adjusted price history for one ticker over a date
// window. Implemented by the EODHD client; tests supply fixtures.
type PriceProvider interface {
	GetPrices(ticker string, from, to time.Time) (domain.PriceSeries, error)
}

// maxStoredRuns bounds the in-memory run history. Older runs are evicted
// in arrival order.
const maxStoredRuns = 20

// Service runs style analyses and keeps recent results in memory.
type Service struct {
	provider PriceProvider
	calc     *returns.Calculator
	sparse   *regression.SparseEstimator
	log      zerolog.Logger

	mu     sync.RWMutex
	runs   map[string]*Result
	order  []string
	latest *Result
	defReq *Request
}

// NewService creates a new analysis service.
func NewService(provider PriceProvider, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		calc:     returns.NewCalculator(log),
		sparse:   regression.NewSparseEstimator(log),
		log:      log.With().Str("component", "analysis_service").Logger(),
		runs:     make(map[string]*Result),
	}
}

// SetDefaultRequest installs the request used when a run is triggered
// without an explicit payload (the scheduler, or an empty POST body).
func (s *Service) SetDefaultRequest(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defReq = &req
}

// DefaultRequest returns the configured default request, if any.
func (s *Service) DefaultRequest() (Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.defReq == nil {
		return Request{}, false
	}
	return *s.defReq, true
}

// Run executes one full analysis.
//
// The factor frame is mandatory: any factor price failure, or an empty
// aligned window, fails the run outright. Instruments fail independently -
// a bad ticker or a singular design for one instrument is recorded in
// Result.Errors and the remaining instruments still get estimated.
func (s *Service) Run(req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	s.log.Info().
		Int("factors", len(req.Factors)).
		Int("instruments", len(req.Instruments)).
		Str("frequency", req.Frequency.String()).
		Msg("Starting analysis run")

	// Factor returns. These are the common design matrix, so failure here
	// fails the run.
	factorReturns := make(map[string]domain.ReturnSeries, len(req.Factors))
	for _, f := range req.Factors {
		prices, err := s.provider.GetPrices(f.Ticker, req.Start, req.End)
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w", f.Name, err)
		}
		ret, err := s.calc.Compute(prices, req.Frequency)
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w", f.Name, err)
		}
		factorReturns[f.Name] = ret
	}

	frame, err := returns.Align(req.Factors.Names(), factorReturns)
	if err != nil {
		return nil, fmt.Errorf("factor alignment: %w", err)
	}

	vif, err := regression.VIF(frame)
	if err != nil {
		return nil, fmt.Errorf("collinearity diagnostic: %w", err)
	}

	result := &Result{
		RunID:        uuid.NewString(),
		StartedAt:    started,
		Frequency:    req.Frequency.String(),
		WindowStart:  frame.Dates[0].Format("2006-01-02"),
		WindowEnd:    frame.Dates[frame.Rows()-1].Format("2006-01-02"),
		Observations: frame.Rows(),
		Factors:      append([]string(nil), frame.Columns...),
		VIF:          vif,
		Errors:       make(map[string]string),
	}

	for _, inst := range req.Instruments {
		ir, err := s.analyzeInstrument(inst, frame, req)
		if err != nil {
			s.log.Warn().Err(err).Str("instrument", inst).Msg("Instrument analysis failed")
			result.Errors[inst] = err.Error()
			continue
		}
		result.Instruments = append(result.Instruments, *ir)
	}

	result.CompletedAt = time.Now().UTC()
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	s.store(result)

	s.log.Info().
		Str("run_id", result.RunID).
		Int("succeeded", len(result.Instruments)).
		Int("failed", len(req.Instruments)-len(result.Instruments)).
		Dur("elapsed", result.CompletedAt.Sub(started)).
		Msg("Analysis run completed")

	return result, nil
}

// analyzeInstrument fetches, aligns and estimates one instrument against an
// already-built factor frame.
func (s *Service) analyzeInstrument(ticker string, frame *returns.Frame, req Request) (*InstrumentResult, error) {
	prices, err := s.provider.GetPrices(ticker, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	ret, err := s.calc.Compute(prices, req.Frequency)
	if err != nil {
		return nil, err
	}

	sub, y, err := returns.AlignTo(frame, ret)
	if err != nil {
		return nil, err
	}

	ols, err := regression.FitOLS(y, sub)
	if err != nil {
		return nil, fmt.Errorf("dense fit: %w", err)
	}
	sparse, err := s.sparse.Fit(y, sub)
	if err != nil {
		return nil, fmt.Errorf("sparse fit: %w", err)
	}

	return &InstrumentResult{
		Instrument:   ticker,
		Observations: sub.Rows(),
		Intercept:    ols.Intercept,
		Dense:        ols.Exposures,
		Sparse:       sparse.Exposures,
		SparseAlpha:  sparse.Alpha,
		SparseDF:     sparse.DF,
	}, nil
}

// Get returns a stored run by ID.
func (s *Service) Get(id string) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

// Latest returns the most recently completed run.
func (s *Service) Latest() (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

func (s *Service) store(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.RunID] = r
	s.order = append(s.order, r.RunID)
	s.latest = r
	for len(s.order) > maxStoredRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func validateRequest(req Request) error {
	if err := req.Factors.Validate(); err != nil {
		return err
	}
	if len(req.Instruments) == 0 {
		return fmt.Errorf("no instruments requested")
	}
	if !req.End.After(req.Start) {
		return fmt.Errorf("end date %s is not after start date %s",
			req.End.Format("2006-01-02"), req.Start.Format("2006-01-02"))
	}
	return nil
}
