package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThemeRefAcceptsNumbersStringsAndNull(t *testing.T) {
	cases := map[string]ThemeRef{
		`{"theme_id": 12}`:        "12",
		`{"theme_id": "12"}`:      "12",
		`{"theme_id": " livre "}`: "livre",
		`{"theme_id": null}`:      "",
		`{}`:                      "",
	}

	for payload, expected := range cases {
		var req EssaySubmitRequest
		require.NoError(t, json.Unmarshal([]byte(payload), &req), payload)
		require.Equal(t, expected, req.ThemeID, payload)
	}
}

func TestThemeRefRejectsObjects(t *testing.T) {
	var req EssaySubmitRequest
	require.Error(t, json.Unmarshal([]byte(`{"theme_id": {"id": 1}}`), &req))
}
