package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONObjectStripsFences(t *testing.T) {
	raw := "```json\n{\"tema\": \"Água\"}\n```"
	require.Equal(t, `{"tema": "Água"}`, ExtractJSONObject(raw))
}

func TestExtractJSONObjectDropsSurroundingText(t *testing.T) {
	raw := "Claro! Segue a correção:\n{\"notas\": {\"c1\": 120}}\nBons estudos."
	require.Equal(t, `{"notas": {"c1": 120}}`, ExtractJSONObject(raw))
}

func TestExtractJSONObjectWithoutObject(t *testing.T) {
	require.Equal(t, "not json", ExtractJSONObject("  not json  "))
	require.Equal(t, "", ExtractJSONObject("```"))
}

func TestExtractJSONObjectKeepsBackticksInsideValues(t *testing.T) {
	raw := "```json\n{\"texto_transcrito\": \"Usei ``` no rascunho.\"}\n```"
	require.Equal(t, "{\"texto_transcrito\": \"Usei ``` no rascunho.\"}", ExtractJSONObject(raw))

	inline := "```JSON {\"tema\": \"`Água`\"}```"
	require.Equal(t, "{\"tema\": \"`Água`\"}", ExtractJSONObject(inline))
}
