package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/preparai-api/pkg/ai"
)

var (
	classificationKeys = []string{"classification", "situacao_tema", "situacao"}
	transcriptKeys     = []string{"transcript", "texto_transcrito"}
	scoreKeys          = []string{"notas", "competencyScores", "competency_scores", "scores"}
	generalCommentKeys = []string{"comentario_geral", "generalComment", "general_comment"}
	commentKeys        = []string{"detalhes_competencias", "perCompetencyComment", "competency_comments", "comments"}
)

// ParseOptions tunes how strictly assessor replies are interpreted.
type ParseOptions struct {
	// StrictClassification rejects replies whose verdict is missing or unknown
	// instead of treating them as on topic.
	StrictClassification bool
}

// ParseEvaluation extracts an Evaluation from a raw assessor reply. Only a reply that does not
// contain a JSON object fails; every missing optional field is defaulted. fallbackText is used
// as the transcript when the reply has none.
func ParseEvaluation(raw, fallbackText string, opts ParseOptions) (Evaluation, error) {
	payload, err := decodeObject(raw)
	if err != nil {
		return Evaluation{}, err
	}

	evaluation := Evaluation{CompetencyComments: map[int]string{}}

	label := stringField(payload, classificationKeys)
	classification, ok := ParseClassification(label)
	if !ok {
		if opts.StrictClassification {
			return Evaluation{}, fmt.Errorf("%w: %q", ErrUnknownClassification, label)
		}
		classification = OnTopic
		evaluation.ClassificationDefaulted = true
	}
	evaluation.Classification = classification

	evaluation.Transcript = strings.TrimSpace(stringField(payload, transcriptKeys))
	if evaluation.Transcript == "" {
		evaluation.Transcript = strings.TrimSpace(fallbackText)
	}
	if evaluation.Transcript == "" {
		evaluation.Transcript = TranscriptPlaceholder
	}

	if value, found := lookup(payload, scoreKeys); found {
		evaluation.Scores = parseScores(value)
	}

	evaluation.GeneralComment = strings.TrimSpace(stringField(payload, generalCommentKeys))

	if value, found := lookup(payload, commentKeys); found {
		if comments, ok := value.(map[string]interface{}); ok {
			for key, item := range comments {
				competency, ok := ParseCompetencyKey(key)
				if !ok {
					continue
				}
				if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
					evaluation.CompetencyComments[competency] = strings.TrimSpace(text)
				}
			}
		}
	}

	return evaluation, nil
}

func decodeObject(raw string) (map[string]interface{}, error) {
	content := ai.ExtractJSONObject(raw)
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(content)))
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: reply is not an object", ErrMalformedOutput)
	}
	return payload, nil
}

func lookup(payload map[string]interface{}, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := payload[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func stringField(payload map[string]interface{}, keys []string) string {
	value, ok := lookup(payload, keys)
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return ""
}

func parseScores(value interface{}) Scores {
	var scores Scores
	switch typed := value.(type) {
	case map[string]interface{}:
		for key, item := range typed {
			competency, ok := ParseCompetencyKey(key)
			if !ok {
				continue
			}
			scores.Set(competency, toScore(item))
		}
	case []interface{}:
		for i, item := range typed {
			if i >= CompetencyCount {
				break
			}
			scores.Set(i+1, toScore(item))
		}
	}
	return scores
}

func toScore(value interface{}) int {
	var text string
	switch typed := value.(type) {
	case json.Number:
		text = typed.String()
	case float64:
		return clampScore(typed)
	case string:
		text = strings.TrimSpace(typed)
	default:
		return 0
	}

	score, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return clampScore(score)
}
