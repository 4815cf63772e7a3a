package annotator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// Service implements the AnnotatorService interface. For each (event, market)
// pair it runs the cache → threshold → scoring call → parse → persist chain,
// with the shared limiter pacing calls against the provider.
type Service struct {
	limiter *CallLimiter
	storage interfaces.StorageManager
	events  interfaces.EventService
	logger  arbor.ILogger

	scorerMu sync.RWMutex
	scorer   interfaces.ScoringService
}

// AnalysisProgress is the payload published per scored event during a batch
type AnalysisProgress struct {
	Date      string `json:"date"`
	Market    string `json:"market"`
	EventName string `json:"event_name"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
}

// NewService creates a new annotator service. The scorer may be nil when no
// API key is configured; scoring is then unavailable and Analyze returns
// nothing rather than failing.
func NewService(scorer interfaces.ScoringService, limiter *CallLimiter, storage interfaces.StorageManager, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		limiter: limiter,
		storage: storage,
		events:  events,
		logger:  logger,
		scorer:  scorer,
	}
}

// SetScorer swaps the scoring service. Called when the user saves a new API
// key through the settings page so the change applies without a restart.
func (s *Service) SetScorer(scorer interfaces.ScoringService) {
	s.scorerMu.Lock()
	defer s.scorerMu.Unlock()
	if s.scorer != nil {
		s.scorer.Close()
	}
	s.scorer = scorer
}

func (s *Service) currentScorer() interfaces.ScoringService {
	s.scorerMu.RLock()
	defer s.scorerMu.RUnlock()
	return s.scorer
}

// Analyze scores one event against one market.
//
// Returns the cached verdict when one exists (no external call). Returns
// (nil, nil) when the event is filtered by the importance threshold, when the
// verdict says not relevant, or when scoring is unavailable - callers treat
// all three the same way: nothing to show for this pair. Returns an error only
// on a failed external call or storage fault, which batch callers log and
// skip.
func (s *Service) Analyze(ctx context.Context, event *models.EconomicEvent, market string) (*models.RelevanceAnalysis, error) {
	if event == nil {
		return nil, fmt.Errorf("event is required")
	}
	market = models.NormalizeSymbol(market)
	if market == "" {
		return nil, fmt.Errorf("market symbol is required")
	}

	// Step 1: cache check. An existing verdict is returned verbatim; this is
	// the dominant cost control, so it runs before anything else.
	cached, err := s.storage.AnalysisStorage().GetAnalysis(ctx, event.Key, market)
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	if cached != nil {
		s.logger.Debug().
			Str("event", event.EventName).
			Str("market", market).
			Msg("Reusing cached analysis")
		return cached, nil
	}

	// Step 2: importance threshold. Filtered events write no cache row, so
	// loosening the star filter later can still analyze them.
	settings, err := s.storage.SettingsStorage().GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if event.ImportanceRank() < settings.StarFilter {
		s.logger.Debug().
			Str("event", event.EventName).
			Str("importance", event.Importance).
			Int("star_filter", settings.StarFilter).
			Msg("Event below importance threshold, skipping")
		return nil, nil
	}

	// No API key configured means scoring is unavailable, not broken
	scorer := s.currentScorer()
	if scorer == nil {
		s.logger.Debug().
			Str("event", event.EventName).
			Msg("No scoring service configured, skipping analysis")
		return nil, nil
	}

	// Step 3: rate-limited external call. The timestamp is stamped only after
	// a successful call, so failures don't consume pacing budget.
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	messages := BuildScoringMessages(event, market)
	response, err := scorer.Score(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("scoring call failed for %s/%s: %w", event.EventName, market, err)
	}
	s.limiter.RecordSuccess()

	// Step 4: parse, structured first then heuristic
	verdict := ParseScoringResponse(response)

	// Step 5: relevance gate. A not-relevant verdict is not persisted, so the
	// pair stays eligible for re-evaluation if conditions change.
	if !verdict.Relevant {
		s.logger.Debug().
			Str("event", event.EventName).
			Str("market", market).
			Msg("Event scored not relevant, nothing persisted")
		return nil, nil
	}

	// Step 6: persist and return
	analysis := &models.RelevanceAnalysis{
		EventKey:         event.Key,
		Market:           market,
		Relevant:         verdict.Relevant,
		EventDescription: verdict.EventDescription,
		AnalysisText:     verdict.AnalysisText,
		ImpactScore:      verdict.ImpactScore,
		Sentiment:        verdict.Sentiment,
		KeyFactors:       verdict.KeyFactors,
		ExpertCommentary: verdict.ExpertCommentary,
		Origin:           verdict.Origin,
		CreatedAt:        time.Now(),
	}
	analysis.DeriveKey()

	if err := s.storage.AnalysisStorage().SaveAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.logger.Info().
		Str("event", event.EventName).
		Str("market", market).
		Int("impact_score", analysis.ImpactScore).
		Str("sentiment", analysis.Sentiment).
		Str("origin", analysis.Origin).
		Msg("Event analyzed")

	return analysis, nil
}

// AnalyzeDate scores every event on a date against one market, collecting the
// verdicts that produced a record. Individual failures are logged and skipped;
// the batch always runs to the end of the date's events.
func (s *Service) AnalyzeDate(ctx context.Context, date, market string) ([]*models.RelevanceAnalysis, error) {
	events, err := s.storage.EventStorage().GetEventsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s: %w", date, err)
	}

	results := make([]*models.RelevanceAnalysis, 0, len(events))
	for i, event := range events {
		analysis, err := s.Analyze(ctx, event, market)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			s.logger.Warn().
				Err(err).
				Str("event", event.EventName).
				Str("market", market).
				Msg("Analysis failed for event, continuing batch")
			continue
		}
		if analysis != nil {
			results = append(results, analysis)
		}

		s.publishProgress(ctx, AnalysisProgress{
			Date:      date,
			Market:    market,
			EventName: event.EventName,
			Current:   i + 1,
			Total:     len(events),
		})
	}

	s.logger.Info().
		Str("date", date).
		Str("market", market).
		Int("events", len(events)).
		Int("analyzed", len(results)).
		Msg("Date analysis batch completed")

	return results, nil
}

func (s *Service) publishProgress(ctx context.Context, progress AnalysisProgress) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventAnalysisProgress,
		Payload: progress,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish analysis progress event")
	}
}
