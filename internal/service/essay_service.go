package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/preparai-api/internal/dto"
	"github.com/noah-isme/preparai-api/internal/grading"
	"github.com/noah-isme/preparai-api/internal/models"
	"github.com/noah-isme/preparai-api/internal/observability"
	"github.com/noah-isme/preparai-api/internal/repository"
	"github.com/noah-isme/preparai-api/pkg/ai"
)

var (
	// ErrInvalidInput indicates the caller supplied an unusable submission.
	ErrInvalidInput = errors.New("invalid essay submission")
	// ErrMissingUser indicates the submission has no student id.
	ErrMissingUser = errors.New("student id is required")
	// ErrInferenceUnavailable indicates the assessor could not be reached in time. Retryable.
	ErrInferenceUnavailable = errors.New("essay assessor unavailable")
	// ErrMalformedInferenceOutput indicates the assessor reply could not be turned into a grade.
	ErrMalformedInferenceOutput = errors.New("essay assessor returned malformed output")
	// ErrPersistenceFailure indicates the grade could not be stored. Nothing was written. Retryable.
	ErrPersistenceFailure = errors.New("failed to store essay grade")
	// ErrEssayNotFound indicates the essay does not exist.
	ErrEssayNotFound = errors.New("essay not found")

	errStaleEssayDetail = errors.New("essay detail superseded")
)

// EventPublisher publishes grading events. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// ImageArchive stores scanned essays and returns a public URL.
type ImageArchive interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EssayService grades essays and serves their read models.
type EssayService interface {
	Submit(ctx context.Context, payload dto.EssaySubmitRequest) (dto.EssayGradeResponse, error)
	Regrade(ctx context.Context, essayID uint) (dto.EssayGradeResponse, error)
	Detail(ctx context.Context, essayID uint) (dto.EssayDetailResponse, error)
	History(ctx context.Context, studentID uint) ([]dto.EssayHistoryItem, error)
}

// EssayServiceConfig describes grading knobs.
type EssayServiceConfig struct {
	InferenceTimeout     time.Duration
	PersistTimeout       time.Duration
	StrictClassification bool
	CacheTTL             time.Duration
	MaxImageBytes        int64
	ImageMaxDimension    int
	EventSubject         string
}

// EssayGradedEvent is published after a grade is stored.
type EssayGradedEvent struct {
	EssayID        uint           `json:"essay_id"`
	StudentID      uint           `json:"student_id"`
	ThemeID        uint           `json:"theme_id"`
	Classification string         `json:"classification"`
	TotalScore     int            `json:"total_score"`
	Scores         map[string]int `json:"scores"`
	Regraded       bool           `json:"regraded"`
	GradedAt       time.Time      `json:"graded_at"`
}

// EssayServiceDeps groups collaborators of the essay service. Cache, Events and Archive are
// optional.
type EssayServiceDeps struct {
	Essays    repository.EssayRepository
	Themes    ThemeService
	Assessor  ai.Client
	Cache     *redis.Client
	Events    EventPublisher
	Archive   ImageArchive
	Validator *validator.Validate
}

type essayService struct {
	essays    repository.EssayRepository
	themes    ThemeService
	assessor  ai.Client
	cache     *redis.Client
	events    EventPublisher
	archive   ImageArchive
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	config    EssayServiceConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEssayService constructs the essay grading service.
func NewEssayService(deps EssayServiceDeps, cfg EssayServiceConfig, logger zerolog.Logger) EssayService {
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 60 * time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 8 * 1024 * 1024
	}
	if cfg.EventSubject == "" {
		cfg.EventSubject = "preparai.essays.graded"
	}

	validate := deps.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &essayService{
		essays:    deps.Essays,
		themes:    deps.Themes,
		assessor:  deps.Assessor,
		cache:     deps.Cache,
		events:    deps.Events,
		archive:   deps.Archive,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		config:    cfg,
		logger:    logger.With().Str("component", "essay_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/preparai-api/internal/service/essay"),
		now:       time.Now,
	}
}

func (s *essayService) Submit(ctx context.Context, payload dto.EssaySubmitRequest) (dto.EssayGradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "essay.submit")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.EssayGradeResponse{}, s.failSpan(span, "validation_failed", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	text := strings.TrimSpace(payload.Text)
	rawImage := strings.TrimSpace(payload.Image)
	if text == "" && rawImage == "" {
		return dto.EssayGradeResponse{}, s.failSpan(span, "empty_submission", fmt.Errorf("%w: %w", ErrInvalidInput, grading.ErrEmptySubmission))
	}
	if payload.StudentID == 0 {
		return dto.EssayGradeResponse{}, s.failSpan(span, "missing_user", ErrMissingUser)
	}

	theme := s.themes.Resolve(ctx, string(payload.ThemeID))
	span.SetAttributes(
		attribute.Int64("essay.student_id", int64(payload.StudentID)),
		attribute.Int64("essay.theme_id", int64(theme.ID)),
	)

	essay := &models.Essay{
		StudentID:   payload.StudentID,
		ThemeID:     theme.ID,
		Modality:    models.EssayModalityText,
		RawContent:  text,
		SubmittedAt: s.now().UTC(),
	}

	modality := ai.ModalityText
	content := text
	var scan essayImage
	if rawImage != "" {
		prepared, err := prepareEssayImage(rawImage, s.config.MaxImageBytes, s.config.ImageMaxDimension)
		if err != nil {
			return dto.EssayGradeResponse{}, s.failSpan(span, "invalid_image", fmt.Errorf("%w: %w", ErrInvalidInput, err))
		}
		scan = prepared
		modality = ai.ModalityImage
		content = scan.DataURI()
		essay.Modality = models.EssayModalityImage
	}
	span.SetAttributes(attribute.String("essay.modality", essay.Modality))

	raw, final, err := s.evaluate(ctx, theme.Title, modality, content, text)
	if err != nil {
		return dto.EssayGradeResponse{}, s.failSpan(span, "evaluation_failed", err)
	}

	if essay.Modality == models.EssayModalityText {
		final.Transcript = text
	}
	essay.TranscribedText = final.Transcript

	if len(scan.Data) > 0 {
		essay.ImageURL = s.archiveImage(ctx, payload.StudentID, scan)
	}

	assessment, err := s.persist(ctx, essay, raw, final)
	if err != nil {
		return dto.EssayGradeResponse{}, s.failSpan(span, "persist_failed", err)
	}

	s.afterGrading(ctx, essay, final, false)
	span.SetAttributes(
		attribute.Int64("essay.id", int64(essay.ID)),
		attribute.Int("essay.total_score", assessment.TotalScore),
	)

	return toGradeResponse(essay, theme.Title, final, assessment.TotalScore), nil
}

// Regrade runs the stored transcript through the assessor again and overwrites the grade in
// place. Image essays are regraded from their transcript.
func (s *essayService) Regrade(ctx context.Context, essayID uint) (dto.EssayGradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "essay.regrade")
	span.SetAttributes(attribute.Int64("essay.id", int64(essayID)))
	defer span.End()

	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayGradeResponse{}, s.failSpan(span, "essay_not_found", ErrEssayNotFound)
		}
		return dto.EssayGradeResponse{}, s.failSpan(span, "essay_lookup_failed", err)
	}

	text := strings.TrimSpace(essay.TranscribedText)
	if text == "" || text == grading.TranscriptPlaceholder {
		text = strings.TrimSpace(essay.RawContent)
	}
	if text == "" {
		return dto.EssayGradeResponse{}, s.failSpan(span, "empty_submission", fmt.Errorf("%w: %w", ErrInvalidInput, grading.ErrEmptySubmission))
	}

	theme := s.themes.Resolve(ctx, fmt.Sprintf("%d", essay.ThemeID))
	raw, final, err := s.evaluate(ctx, theme.Title, ai.ModalityText, text, text)
	if err != nil {
		return dto.EssayGradeResponse{}, s.failSpan(span, "evaluation_failed", err)
	}
	final.Transcript = text

	target := &models.Essay{
		ID:              essay.ID,
		StudentID:       essay.StudentID,
		ThemeID:         essay.ThemeID,
		Modality:        essay.Modality,
		ImageURL:        essay.ImageURL,
		TranscribedText: text,
	}
	assessment, err := s.persist(ctx, target, raw, final)
	if err != nil {
		return dto.EssayGradeResponse{}, s.failSpan(span, "persist_failed", err)
	}

	s.afterGrading(ctx, target, final, true)
	return toGradeResponse(target, theme.Title, final, assessment.TotalScore), nil
}

func (s *essayService) evaluate(ctx context.Context, title string, modality ai.Modality, content, fallbackText string) (grading.Evaluation, grading.Evaluation, error) {
	request, err := grading.BuildEssayRequest(title, modality, content)
	if err != nil {
		return grading.Evaluation{}, grading.Evaluation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if s.assessor == nil {
		observability.GradingFailures().WithLabelValues("inference_unavailable").Inc()
		return grading.Evaluation{}, grading.Evaluation{}, fmt.Errorf("%w: %w", ErrInferenceUnavailable, errInferenceNotConfigured)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.InferenceTimeout)
	reply, err := s.assessor.Complete(callCtx, request)
	cancel()
	if err != nil {
		observability.GradingFailures().WithLabelValues("inference_unavailable").Inc()
		s.logger.Warn().Err(err).Str("modality", string(modality)).Msg("essay assessor call failed")
		return grading.Evaluation{}, grading.Evaluation{}, fmt.Errorf("%w: %w", ErrInferenceUnavailable, err)
	}

	raw, err := grading.ParseEvaluation(reply, fallbackText, grading.ParseOptions{StrictClassification: s.config.StrictClassification})
	if err != nil {
		observability.GradingFailures().WithLabelValues("malformed_output").Inc()
		s.logger.Warn().Err(err).Msg("essay assessor reply rejected")
		return grading.Evaluation{}, grading.Evaluation{}, fmt.Errorf("%w: %w", ErrMalformedInferenceOutput, err)
	}
	raw = s.sanitize(raw)

	final := grading.ApplyTopicPolicy(raw, title)
	if final.Classification != grading.OnTopic {
		s.logger.Info().
			Str("classification", final.Classification.Label()).
			Int("raw_total", raw.Scores.Total()).
			Int("final_total", final.Scores.Total()).
			Msg("topic policy applied")
	}
	if raw.ClassificationDefaulted {
		s.logger.Warn().Msg("assessor reply had no recognisable topic classification, graded as on topic")
	}

	return raw, final, nil
}

// sanitize strips markup from model-authored feedback. Responses are JSON, so the entities
// bluemonday emits are decoded back to plain text.
func (s *essayService) sanitize(evaluation grading.Evaluation) grading.Evaluation {
	evaluation.GeneralComment = s.plainText(evaluation.GeneralComment)
	if len(evaluation.CompetencyComments) > 0 {
		comments := make(map[int]string, len(evaluation.CompetencyComments))
		for competency, comment := range evaluation.CompetencyComments {
			comments[competency] = s.plainText(comment)
		}
		evaluation.CompetencyComments = comments
	}
	return evaluation
}

func (s *essayService) plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

// persist writes the grade atomically. The write is detached from caller cancellation so a
// disconnect cannot leave it half done.
func (s *essayService) persist(ctx context.Context, essay *models.Essay, raw, final grading.Evaluation) (*models.EssayAssessment, error) {
	detail, err := grading.NewDetail(raw, final).JSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	competencies := make([]models.EssayCompetency, 0, grading.CompetencyCount)
	for competency := 1; competency <= grading.CompetencyCount; competency++ {
		competencies = append(competencies, models.EssayCompetency{
			Competency: competency,
			Score:      final.Scores.Get(competency),
		})
	}

	assessment := &models.EssayAssessment{
		TotalScore:     final.Scores.Total(),
		Classification: final.Classification.Label(),
		Observations:   final.GeneralComment,
		Detail:         datatypes.JSON(detail),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PersistTimeout)
	defer cancel()

	if err := s.essays.SaveGrading(writeCtx, essay, competencies, assessment); err != nil {
		observability.GradingFailures().WithLabelValues("persistence").Inc()
		s.logger.Error().Err(err).Uint("essay_id", essay.ID).Uint("student_id", essay.StudentID).Msg("failed to store essay grade")
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	return assessment, nil
}

func (s *essayService) archiveImage(ctx context.Context, studentID uint, scan essayImage) string {
	if s.archive == nil {
		return ""
	}

	name := fmt.Sprintf("essay-%d-%s%s", studentID, uuid.NewString(), scan.Extension())
	url, err := s.archive.Upload(ctx, name, bytes.NewReader(scan.Data))
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to archive essay image")
		return ""
	}
	return url
}

func (s *essayService) afterGrading(ctx context.Context, essay *models.Essay, final grading.Evaluation, regraded bool) {
	label := final.Classification.Label()
	observability.Gradings().WithLabelValues(label, essay.Modality).Inc()
	observability.EssayScores().Observe(float64(final.Scores.Total()))

	s.logger.Info().
		Uint("essay_id", essay.ID).
		Uint("student_id", essay.StudentID).
		Str("classification", label).
		Int("total_score", final.Scores.Total()).
		Bool("regraded", regraded).
		Msg("essay graded")

	s.invalidateDetail(ctx, essay.ID)

	if s.events == nil {
		return
	}
	event := EssayGradedEvent{
		EssayID:        essay.ID,
		StudentID:      essay.StudentID,
		ThemeID:        essay.ThemeID,
		Classification: label,
		TotalScore:     final.Scores.Total(),
		Scores:         final.Scores.Map(),
		Regraded:       regraded,
		GradedAt:       s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode essay graded event")
		return
	}
	if err := s.events.Publish(s.config.EventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", essay.ID).Msg("failed to publish essay graded event")
	}
}

func (s *essayService) Detail(ctx context.Context, essayID uint) (dto.EssayDetailResponse, error) {
	cacheKey := essayDetailCacheKey(essayID)
	generation, cacheable := "", false

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var response dto.EssayDetailResponse
			if unmarshalErr := json.Unmarshal(cached, &response); unmarshalErr == nil {
				s.logger.Debug().Uint("essay_id", essayID).Msg("essay detail cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read essay detail cache")
		}

		// the generation read before loading guards the write below against a concurrent regrade
		current, err := s.cache.Get(ctx, essayDetailGenerationKey(essayID)).Result()
		if err == nil || errors.Is(err, redis.Nil) {
			generation, cacheable = current, true
		}
	}

	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayDetailResponse{}, ErrEssayNotFound
		}
		return dto.EssayDetailResponse{}, err
	}

	theme := s.themes.Resolve(ctx, fmt.Sprintf("%d", essay.ThemeID))
	response, err := toDetailResponse(essay, theme.Title)
	if err != nil {
		return dto.EssayDetailResponse{}, err
	}

	if cacheable && response.Graded {
		s.storeDetail(ctx, essayID, generation, response)
	}

	return response, nil
}

// storeDetail caches a detail only if no grading invalidated the essay since generation was read.
func (s *essayService) storeDetail(ctx context.Context, essayID uint, generation string, response dto.EssayDetailResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	generationKey := essayDetailGenerationKey(essayID)
	err = s.cache.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleEssayDetail
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, essayDetailCacheKey(essayID), payload, s.config.CacheTTL)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleEssayDetail), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug().Uint("essay_id", essayID).Msg("skipped caching superseded essay detail")
	default:
		s.logger.Warn().Err(err).Msg("failed to store essay detail cache")
	}
}

func (s *essayService) History(ctx context.Context, studentID uint) ([]dto.EssayHistoryItem, error) {
	if studentID == 0 {
		return nil, ErrMissingUser
	}

	rows, err := s.essays.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.EssayHistoryItem, 0, len(rows))
	for _, row := range rows {
		title := "Tema Livre"
		if row.ThemeTitle != nil && strings.TrimSpace(*row.ThemeTitle) != "" {
			title = strings.TrimSpace(*row.ThemeTitle)
		}
		items = append(items, dto.EssayHistoryItem{
			EssayID:     row.EssayID,
			Title:       "Redação: " + title,
			TotalScore:  row.TotalScore,
			SubmittedAt: row.SubmittedAt,
		})
	}
	return items, nil
}

func (s *essayService) invalidateDetail(ctx context.Context, essayID uint) {
	if s.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	generationKey := essayDetailGenerationKey(essayID)
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Expire(ctx, generationKey, s.config.CacheTTL)
		pipe.Del(ctx, essayDetailCacheKey(essayID))
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", essayID).Msg("failed to invalidate essay detail cache")
	}
}

func (s *essayService) failSpan(span trace.Span, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func essayDetailCacheKey(essayID uint) string {
	return fmt.Sprintf("essay:detail:%d", essayID)
}

func toGradeResponse(essay *models.Essay, title string, final grading.Evaluation, total int) dto.EssayGradeResponse {
	return dto.EssayGradeResponse{
		ID:                 essay.ID,
		ThemeID:            essay.ThemeID,
		ThemeTitle:         title,
		Classification:     final.Classification.Label(),
		TotalScore:         total,
		Scores:             final.Scores.Map(),
		GeneralComment:     final.GeneralComment,
		CompetencyComments: final.CommentsMap(),
		Transcript:         final.Transcript,
		ImageURL:           essay.ImageURL,
	}
}

func toDetailResponse(essay models.Essay, title string) (dto.EssayDetailResponse, error) {
	text := essay.TranscribedText
	if strings.TrimSpace(text) == "" {
		text = essay.RawContent
	}

	response := dto.EssayDetailResponse{
		ID:                 essay.ID,
		StudentID:          essay.StudentID,
		ThemeID:            essay.ThemeID,
		ThemeTitle:         title,
		Modality:           essay.Modality,
		Text:               text,
		ImageURL:           essay.ImageURL,
		SubmittedAt:        essay.SubmittedAt,
		Scores:             map[string]int{},
		CompetencyComments: map[string]string{},
	}

	for _, competency := range essay.Competencies {
		response.Scores[grading.CompetencyKey(competency.Competency)] = competency.Score
	}

	if essay.Assessment == nil {
		return response, nil
	}

	response.Graded = true
	response.TotalScore = essay.Assessment.TotalScore
	response.Classification = essay.Assessment.Classification
	response.GeneralComment = essay.Assessment.Observations

	detail, err := grading.DecodeDetail(essay.Assessment.Detail)
	if err != nil {
		return dto.EssayDetailResponse{}, err
	}
	for key, comment := range detail.CompetencyComments {
		response.CompetencyComments[key] = comment
	}

	return response, nil
}

func essayDetailGenerationKey(essayID uint) string {
	return fmt.Sprintf("essay:detail:%d:gen", essayID)
}
