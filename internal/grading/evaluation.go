package grading

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptySubmission indicates neither essay text nor an image was supplied.
	ErrEmptySubmission = errors.New("essay has no text or image content")
	// ErrMalformedOutput indicates the assessor reply could not be parsed into an evaluation.
	ErrMalformedOutput = errors.New("malformed inference output")
	// ErrUnknownClassification is returned in strict mode when the verdict is missing or unknown.
	ErrUnknownClassification = fmt.Errorf("%w: unknown topic classification", ErrMalformedOutput)
)

// TranscriptPlaceholder is stored when neither the assessor nor the caller provided text.
const TranscriptPlaceholder = "[Texto Imagem]"

// Evaluation is the structured assessment extracted from one assessor reply.
type Evaluation struct {
	Classification Classification
	// ClassificationDefaulted is true when the reply had no recognisable verdict.
	ClassificationDefaulted bool
	Transcript              string
	Scores                  Scores
	GeneralComment          string
	CompetencyComments      map[int]string
}

// CommentsMap renders per-competency comments keyed "c1".."c5".
func (e Evaluation) CommentsMap() map[string]string {
	out := make(map[string]string, len(e.CompetencyComments))
	for competency, comment := range e.CompetencyComments {
		out[CompetencyKey(competency)] = comment
	}
	return out
}

// Detail is the auditable document persisted with the final assessment. It records the
// post-policy result next to the raw scores the assessor produced.
type Detail struct {
	Classification     string            `json:"situacao_tema"`
	Transcript         string            `json:"texto_transcrito"`
	Scores             map[string]int    `json:"notas"`
	RawScores          map[string]int    `json:"notas_brutas"`
	GeneralComment     string            `json:"comentario_geral"`
	CompetencyComments map[string]string `json:"detalhes_competencias"`
	Defaulted          bool              `json:"situacao_presumida,omitempty"`
}

// NewDetail builds the detail document from the raw and final evaluations.
func NewDetail(raw, final Evaluation) Detail {
	return Detail{
		Classification:     final.Classification.Label(),
		Transcript:         final.Transcript,
		Scores:             final.Scores.Map(),
		RawScores:          raw.Scores.Map(),
		GeneralComment:     final.GeneralComment,
		CompetencyComments: final.CommentsMap(),
		Defaulted:          final.ClassificationDefaulted,
	}
}

// JSON encodes the detail document.
func (d Detail) JSON() ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDetail reads a stored detail document. Empty input yields a zero Detail.
func DecodeDetail(data []byte) (Detail, error) {
	var detail Detail
	if len(data) == 0 {
		return detail, nil
	}
	if err := json.Unmarshal(data, &detail); err != nil {
		return Detail{}, fmt.Errorf("decode evaluation detail: %w", err)
	}
	return detail, nil
}
