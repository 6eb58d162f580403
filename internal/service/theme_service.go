package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/preparai-api/internal/dto"
	"github.com/noah-isme/preparai-api/internal/grading"
	"github.com/noah-isme/preparai-api/internal/models"
	"github.com/noah-isme/preparai-api/internal/observability"
	"github.com/noah-isme/preparai-api/internal/repository"
	"github.com/noah-isme/preparai-api/pkg/ai"
)

var errInferenceNotConfigured = errors.New("inference client not configured")

// ResolvedTheme is the theme an essay is graded against.
type ResolvedTheme struct {
	ID    uint
	Title string
}

// ThemeService generates and resolves essay themes. Neither operation returns an error.
type ThemeService interface {
	Generate(ctx context.Context) dto.ThemeResponse
	Resolve(ctx context.Context, raw string) ResolvedTheme
}

type themeService struct {
	themes  repository.ThemeRepository
	client  ai.Client
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewThemeService constructs the theme service. A nil client makes Generate always serve
// fallback themes.
func NewThemeService(themes repository.ThemeRepository, client ai.Client, timeout time.Duration, logger zerolog.Logger) ThemeService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &themeService{
		themes:  themes,
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("component", "theme_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/preparai-api/internal/service/theme"),
		now:     time.Now,
	}
}

func (s *themeService) Generate(ctx context.Context) dto.ThemeResponse {
	ctx, span := s.tracer.Start(ctx, "theme.generate")
	defer span.End()

	theme, err := s.generate(ctx)
	if err != nil {
		fallback := grading.FallbackTheme(s.now())
		s.logger.Warn().Err(err).Str("title", fallback.Title).Msg("serving fallback theme")
		span.SetAttributes(attribute.Bool("theme.fallback", true))
		observability.ThemeGenerations().WithLabelValues("fallback").Inc()
		return toThemeResponse(fallback)
	}

	span.SetAttributes(attribute.Int64("theme.id", int64(theme.ID)))
	observability.ThemeGenerations().WithLabelValues("ai").Inc()
	return toThemeResponse(theme)
}

func (s *themeService) generate(ctx context.Context) (grading.GeneratedTheme, error) {
	if s.client == nil {
		return grading.GeneratedTheme{}, errInferenceNotConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.Complete(callCtx, grading.BuildThemeRequest())
	if err != nil {
		return grading.GeneratedTheme{}, err
	}

	theme, err := grading.ParseGeneratedTheme(reply)
	if err != nil {
		return grading.GeneratedTheme{}, err
	}

	record := models.Theme{Title: theme.Title, SupportText: theme.SupportText, GeneratedByAI: true}
	if err := s.themes.Create(ctx, &record); err != nil {
		return grading.GeneratedTheme{}, err
	}
	theme.ID = record.ID

	s.logger.Info().Uint("theme_id", record.ID).Msg("theme generated")
	return theme, nil
}

// Resolve maps a loosely typed theme reference to a theme. Unknown numeric ids keep the
// supplied id with the placeholder title; anything else maps to the placeholder theme.
func (s *themeService) Resolve(ctx context.Context, raw string) ResolvedTheme {
	placeholder := ResolvedTheme{ID: grading.PlaceholderThemeID, Title: grading.PlaceholderThemeTitle}

	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		return placeholder
	}

	resolved := ResolvedTheme{ID: uint(id), Title: grading.PlaceholderThemeTitle}
	if s.themes == nil {
		return resolved
	}

	theme, err := s.themes.GetByID(ctx, uint(id))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint64("theme_id", id).Msg("theme lookup failed")
		}
		return resolved
	}

	if title := strings.TrimSpace(theme.Title); title != "" {
		resolved.Title = title
	}
	return resolved
}

func toThemeResponse(theme grading.GeneratedTheme) dto.ThemeResponse {
	return dto.ThemeResponse{
		ID:            theme.ID,
		Title:         theme.Title,
		SupportText:   theme.SupportText,
		GeneratedByAI: theme.GeneratedByAI,
	}
}
