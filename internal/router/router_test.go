package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/preparai-api/internal/config"
	"github.com/noah-isme/preparai-api/internal/dto"
	"github.com/noah-isme/preparai-api/internal/handler"
	"github.com/noah-isme/preparai-api/internal/router"
	"github.com/noah-isme/preparai-api/internal/service"
)

type nopEssayService struct{}

func (nopEssayService) Submit(context.Context, dto.EssaySubmitRequest) (dto.EssayGradeResponse, error) {
	return dto.EssayGradeResponse{}, nil
}

func (nopEssayService) Regrade(context.Context, uint) (dto.EssayGradeResponse, error) {
	return dto.EssayGradeResponse{}, nil
}

func (nopEssayService) Detail(context.Context, uint) (dto.EssayDetailResponse, error) {
	return dto.EssayDetailResponse{}, nil
}

func (nopEssayService) History(context.Context, uint) ([]dto.EssayHistoryItem, error) {
	return nil, nil
}

type fixedThemeService struct{}

func (fixedThemeService) Generate(context.Context) dto.ThemeResponse {
	return dto.ThemeResponse{ID: 1, Title: "Os desafios do combate à fome no Brasil"}
}

func (fixedThemeService) Resolve(context.Context, string) service.ResolvedTheme {
	return service.ResolvedTheme{ID: 1}
}

func TestRegisterExposesEssayRoutes(t *testing.T) {
	app := fiber.New()
	logger := zerolog.Nop()
	router.Register(app, config.Config{AppName: "PreparAI API"}, router.Dependencies{
		EssayHandler: handler.NewEssayHandler(nopEssayService{}, validator.New(), logger),
		ThemeHandler: handler.NewThemeHandler(fixedThemeService{}, logger),
	})

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/health", fiber.StatusOK},
		{http.MethodGet, "/metrics", fiber.StatusOK},
		{http.MethodGet, "/api/v2/essays/themes/generate", fiber.StatusOK},
		{http.MethodPost, "/api/v2/essays/themes/generate", fiber.StatusOK},
		{http.MethodGet, "/api/v2/essays/4", fiber.StatusOK},
		{http.MethodGet, "/api/v2/essays/history/4", fiber.StatusOK},
		{http.MethodPost, "/api/v2/essays/4/regrade", fiber.StatusOK},
		{http.MethodDelete, "/api/v2/essays/4", fiber.StatusMethodNotAllowed},
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil), -1)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.method+" "+tc.path)
	}
}
