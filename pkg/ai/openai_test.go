package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	require.Error(t, err)
}

func TestBuildMessagesTextModality(t *testing.T) {
	messages := buildMessages(Request{Instructions: "system", Prompt: "Tema: 'x'", Modality: ModalityText})
	require.Len(t, messages, 2)
	require.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	require.Equal(t, "Tema: 'x'", messages[1].Content)
	require.Empty(t, messages[1].MultiContent)
}

func TestBuildMessagesImageModalityAttachesImage(t *testing.T) {
	messages := buildMessages(Request{
		Instructions: "system",
		Prompt:       "transcreva",
		Modality:     ModalityImage,
		Content:      "data:image/png;base64,AAAA",
	})
	require.Len(t, messages, 2)
	user := messages[1]
	require.Empty(t, user.Content)
	require.Len(t, user.MultiContent, 2)
	require.Equal(t, openai.ChatMessagePartTypeText, user.MultiContent[0].Type)
	require.Equal(t, openai.ChatMessagePartTypeImageURL, user.MultiContent[1].Type)
	require.Equal(t, "data:image/png;base64,AAAA", user.MultiContent[1].ImageURL.URL)
}

func TestOpenAIClientCompleteReturnsFirstChoice(t *testing.T) {
	var captured openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  {\"ok\":true}  "}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), Request{
		Operation:    "essay_grading",
		Instructions: "grade",
		Prompt:       "essay",
		Modality:     ModalityText,
		JSONOutput:   true,
		Temperature:  0.4,
	})
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, content)
	require.Equal(t, "gpt-4o-mini", captured.Model)
	require.Equal(t, 4096, captured.MaxTokens)
	require.NotNil(t, captured.ResponseFormat)
}

func TestOpenAIClientCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "x"})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIClientCompleteProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
}
