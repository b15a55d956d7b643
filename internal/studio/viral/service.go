// Package viral predicts how well a rendered video will perform. Prediction
// failures never reach the caller: a fallback score is produced instead.
package viral

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type Predictor interface {
	PredictViralScore(ctx context.Context, cred models.Credentials, videoURL string) (int, error)
	GetViralAnalysis(ctx context.Context, cred models.Credentials, videoURL string) (models.ViralScore, error)
}

var errNoPredictor = errors.New("prediction service not configured")

type Service struct {
	predictor Predictor
	fallback  FallbackStrategy
	logger    zerolog.Logger
}

// New returns a Service. A nil predictor makes every call use the fallback; a
// nil strategy means DefaultFallback.
func New(predictor Predictor, fallback FallbackStrategy, logger zerolog.Logger) *Service {
	if fallback == nil {
		fallback = DefaultFallback()
	}
	return &Service{
		predictor: predictor,
		fallback:  fallback,
		logger:    logger.With().Str("component", "viral").Logger(),
	}
}

func (s *Service) PredictScore(ctx context.Context, cred models.Credentials, videoURL string) int {
	score, err := s.predict(ctx, cred, videoURL)
	if err != nil {
		fb := models.ClampScore(s.fallback.Score())
		s.logger.Warn().Err(err).Str("video_url", videoURL).Int("fallback_score", fb).Msg("viral prediction unavailable")
		return fb
	}
	return models.ClampScore(score)
}

func (s *Service) predict(ctx context.Context, cred models.Credentials, videoURL string) (int, error) {
	if s.predictor == nil {
		return 0, errNoPredictor
	}
	return s.predictor.PredictViralScore(ctx, cred, videoURL)
}

// Analyze returns the detailed analysis for a video, synthesizing one when
// the prediction service fails.
func (s *Service) Analyze(ctx context.Context, cred models.Credentials, videoURL string) models.ViralScore {
	var (
		v   models.ViralScore
		err error
	)
	if s.predictor == nil {
		err = errNoPredictor
	} else {
		v, err = s.predictor.GetViralAnalysis(ctx, cred, videoURL)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("video_url", videoURL).Msg("viral analysis unavailable, synthesizing")
		return s.Synthesize(s.fallback.Score())
	}

	v.Normalize()
	if len(v.Suggestions) > maxSuggestions {
		v.Suggestions = v.Suggestions[:maxSuggestions]
	}
	return v
}

// Synthesize builds a full analysis around score using the fallback strategy
// for sub-score jitter.
func (s *Service) Synthesize(score int) models.ViralScore {
	score = models.ClampScore(score)
	jitter := func() int { return models.ClampScore(score + s.fallback.Jitter(breakdownJitter)) }

	v := models.ViralScore{
		Score: score,
		Breakdown: models.ScoreBreakdown{
			Hook:    jitter(),
			Pacing:  jitter(),
			Visuals: jitter(),
			Audio:   jitter(),
			Trend:   jitter(),
		},
		PredictedViews:      predictedViews(score),
		PredictedEngagement: predictedEngagement(score),
		Fallback:            true,
	}
	v.Normalize()
	v.Suggestions = Suggest(v.Score, v.Breakdown)
	return v
}

func predictedViews(score int) int {
	return score * score * 25
}

// predictedEngagement is a percentage with one decimal.
func predictedEngagement(score int) float64 {
	return math.Round(float64(score)*1.2) / 10
}
