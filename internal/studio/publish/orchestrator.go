// Package publish sends a rendered video to a social platform. A publish
// attempt is a single round trip; failures are returned as results, never as
// errors, and are not retried here.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/repository"
)

const qrSize = 256

var DefaultPlatforms = []string{"tiktok", "instagram", "youtube"}

type Service interface {
	PublishToSocial(ctx context.Context, cred models.Credentials, req models.PublishRequest) (models.PublishReceipt, error)
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

type Config struct {
	Service   Service
	Events    repository.EventStore
	Platforms []string
	ShareQR   bool
	Logger    zerolog.Logger
}

type Orchestrator struct {
	service   Service
	events    repository.EventStore
	platforms []string
	shareQR   bool
	validate  *validator.Validate
	logger    zerolog.Logger
	clock     func() time.Time
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("publish service is required")
	}
	platforms := cfg.Platforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return &Orchestrator{
		service:   cfg.Service,
		events:    cfg.Events,
		platforms: platforms,
		shareQR:   cfg.ShareQR,
		validate:  validator.New(),
		logger:    cfg.Logger.With().Str("component", "publish_orchestrator").Logger(),
		clock:     time.Now,
	}, nil
}

func (o *Orchestrator) Platforms() []string {
	return slices.Clone(o.platforms)
}

func (o *Orchestrator) Publish(ctx context.Context, cred models.Credentials, req models.PublishRequest) models.PublishResult {
	req.PlatformID = strings.ToLower(strings.TrimSpace(req.PlatformID))
	log := o.logger.With().
		Str("project_id", req.ProjectID.String()).
		Str("platform", req.PlatformID).
		Logger()

	if f := o.check(cred, req); f != nil {
		log.Warn().Str("kind", string(f.Kind)).Str("reason", f.Message).Msg("publish rejected before sending")
		return models.PublishResult{Platform: req.PlatformID, Failure: f}
	}

	receipt, err := o.service.PublishToSocial(ctx, cred, req)
	res := o.result(req.PlatformID, receipt, err)

	if res.Success {
		if o.shareQR {
			png, qrErr := qrcode.Encode(res.URL, qrcode.Medium, qrSize)
			if qrErr != nil {
				log.Warn().Err(qrErr).Msg("share code not generated")
			} else {
				res.ShareQR = png
			}
		}
		log.Info().Str("url", res.URL).Msg("video published")
	} else {
		log.Error().
			Err(err).
			Str("kind", string(res.Failure.Kind)).
			Bool("retryable", res.Failure.Retryable).
			Str("reason", res.Failure.Message).
			Msg("publish failed")
	}

	o.record(ctx, req, res, log)
	return res
}

func (o *Orchestrator) check(cred models.Credentials, req models.PublishRequest) *models.PublishFailure {
	if cred.Token == "" || cred.UserID == "" {
		return &models.PublishFailure{Kind: models.FailureAuth, Message: "missing credentials"}
	}
	if req.ProjectID == uuid.Nil {
		return &models.PublishFailure{Kind: models.FailureValidation, Message: "project id is required"}
	}
	if err := o.validate.Struct(req); err != nil {
		return &models.PublishFailure{Kind: models.FailureValidation, Message: validationMessage(err)}
	}
	if !slices.Contains(o.platforms, req.PlatformID) {
		return &models.PublishFailure{
			Kind:    models.FailureValidation,
			Message: fmt.Sprintf("unsupported platform %q", req.PlatformID),
		}
	}
	return nil
}

func (o *Orchestrator) result(platform string, receipt models.PublishReceipt, err error) models.PublishResult {
	res := models.PublishResult{Platform: platform}
	switch {
	case err != nil:
		res.Failure = Classify(err)
	case !receipt.Success:
		msg := receipt.Message
		if msg == "" {
			msg = "publish rejected by platform"
		}
		res.Failure = &models.PublishFailure{Kind: models.FailureRejected, Message: msg}
	case receipt.URL == "":
		res.Failure = &models.PublishFailure{
			Kind:      models.FailureServer,
			Message:   "publish succeeded without a public url",
			Retryable: true,
		}
	default:
		res.Success = true
		res.URL = receipt.URL
	}
	return res
}

func (o *Orchestrator) record(ctx context.Context, req models.PublishRequest, res models.PublishResult, log zerolog.Logger) {
	if o.events == nil {
		return
	}
	ev := models.NewProjectPublished(req.ProjectID, req.PlatformID, res.Success, res.URL, o.clock())
	if err := o.events.Append(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("publish event not recorded")
	}
}

// Classify maps a transport error onto a failure kind.
func Classify(err error) *models.PublishFailure {
	f := &models.PublishFailure{Message: err.Error()}

	var sc statusCoder
	if !errors.As(err, &sc) {
		f.Kind = models.FailureNetwork
		f.Retryable = !errors.Is(err, context.Canceled)
		return f
	}

	code := sc.StatusCode()
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		f.Kind = models.FailureAuth
	case code == http.StatusTooManyRequests || code == http.StatusRequestTimeout:
		f.Kind = models.FailureRejected
		f.Retryable = true
	case code >= 400 && code < 500:
		f.Kind = models.FailureRejected
	default:
		f.Kind = models.FailureServer
		f.Retryable = true
	}
	return f
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
