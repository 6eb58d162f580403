package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestThemeGenerationsCountsBySource(t *testing.T) {
	before := testutil.ToFloat64(ThemeGenerations().WithLabelValues("fallback"))
	ThemeGenerations().WithLabelValues("fallback").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(ThemeGenerations().WithLabelValues("fallback")))
}

func TestMetricsHandlerExposesEssayCollectors(t *testing.T) {
	Gradings().WithLabelValues("TANGENTE", "text").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "essay_gradings_total"))
}
