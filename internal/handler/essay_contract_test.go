package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/preparai-api/internal/dto"
	"github.com/noah-isme/preparai-api/internal/handler"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var document interface{}
	require.NoError(t, json.Unmarshal(body, &document))
	require.NoError(t, schema.Validate(document))
}

func TestEssayGradeContract(t *testing.T) {
	schema := compileSchema(t, "essay_grade.schema.json")

	svc := &stubEssayService{submitResponse: dto.EssayGradeResponse{
		ID:                 11,
		ThemeID:            1,
		ThemeTitle:         "Tema Livre / Não informado",
		Classification:     "TANGENTE",
		TotalScore:         450,
		Scores:             map[string]int{"c1": 150, "c2": 40, "c3": 40, "c4": 180, "c5": 40},
		GeneralComment:     "NOTA REBAIXADA. Você tangenciou o tema 'Tema Livre / Não informado'.",
		CompetencyComments: map[string]string{"c1": "Domínio adequado."},
		Transcript:         "Minha redação",
	}}
	app := newEssayApp(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/essays", strings.NewReader(`{"student_id": 1, "text": "Minha redação"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestThemeContract(t *testing.T) {
	schema := compileSchema(t, "theme.schema.json")

	svc := &stubThemeService{theme: dto.ThemeResponse{ID: 1, Title: "Os desafios do combate à fome no Brasil", SupportText: "Backup: IA indisponível."}}
	app := fiber.New()
	handler.NewThemeHandler(svc, zerolog.Nop()).Register(app.Group("/api/v2/essays"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/essays/themes/generate", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}
