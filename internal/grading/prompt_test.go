package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/preparai-api/pkg/ai"
)

func TestBuildEssayRequestText(t *testing.T) {
	request, err := BuildEssayRequest("Fome no Brasil", ai.ModalityText, "Minha redação.")
	require.NoError(t, err)
	require.Equal(t, ai.ModalityText, request.Modality)
	require.Contains(t, request.Instructions, `"Fome no Brasil"`)
	require.Contains(t, request.Instructions, "TANGENTE")
	require.Contains(t, request.Instructions, "texto_transcrito")
	require.Contains(t, request.Prompt, "Minha redação.")
	require.Empty(t, request.Content)
	require.True(t, request.JSONOutput)
}

func TestBuildEssayRequestImage(t *testing.T) {
	request, err := BuildEssayRequest("Fome no Brasil", ai.ModalityImage, "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	require.Equal(t, ai.ModalityImage, request.Modality)
	require.Equal(t, "data:image/jpeg;base64,AAAA", request.Content)
	require.Contains(t, request.Prompt, "Fome no Brasil")
	require.NotContains(t, request.Prompt, "base64")
}

func TestBuildEssayRequestRejectsEmptyContent(t *testing.T) {
	_, err := BuildEssayRequest("Tema", ai.ModalityText, "   ")
	require.ErrorIs(t, err, ErrEmptySubmission)
}

func TestBuildThemeRequest(t *testing.T) {
	request := BuildThemeRequest()
	require.Equal(t, "theme_generation", request.Operation)
	require.Contains(t, request.Prompt, "texto_apoio")
}
