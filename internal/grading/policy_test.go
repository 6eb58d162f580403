package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyTopicPolicyOffTopicZeroesScores(t *testing.T) {
	input := Evaluation{
		Classification:     OffTopic,
		Scores:             Scores{120, 140, 160, 180, 200},
		GeneralComment:     "Texto bem escrito.",
		CompetencyComments: map[int]string{1: "ok"},
	}

	result := ApplyTopicPolicy(input, "A preservação da Amazônia")
	require.Equal(t, Scores{}, result.Scores)
	require.Zero(t, result.Scores.Total())
	require.Equal(t, "REDAÇÃO ZERADA. Fuga ao tema 'A preservação da Amazônia'.", result.GeneralComment)
	require.Equal(t, map[int]string{1: "ok"}, result.CompetencyComments)

	require.Equal(t, Scores{120, 140, 160, 180, 200}, input.Scores, "input must not be modified")
	require.Equal(t, "Texto bem escrito.", input.GeneralComment)
}

func TestApplyTopicPolicyTangentCapsSelectedCompetencies(t *testing.T) {
	input := Evaluation{Classification: Tangent, Scores: Scores{150, 90, 70, 180, 60}, GeneralComment: "Bom."}

	result := ApplyTopicPolicy(input, "Fome")
	require.Equal(t, Scores{150, 40, 40, 180, 40}, result.Scores)
	require.Equal(t, 450, result.Scores.Total())
	require.Equal(t, "NOTA REBAIXADA. Você tangenciou o tema 'Fome'.", result.GeneralComment)
}

func TestApplyTopicPolicyTangentKeepsLowScores(t *testing.T) {
	input := Evaluation{Classification: Tangent, Scores: Scores{200, 40, 0, 120, 39}}

	result := ApplyTopicPolicy(input, "Fome")
	require.Equal(t, Scores{200, 40, 0, 120, 39}, result.Scores)
}

func TestApplyTopicPolicyOnTopicIsIdentity(t *testing.T) {
	input := Evaluation{
		Classification:     OnTopic,
		Transcript:         "texto",
		Scores:             Scores{200, 180, 160, 140, 120},
		GeneralComment:     "Excelente.",
		CompetencyComments: map[int]string{2: "Repertório legitimado."},
	}

	result := ApplyTopicPolicy(input, "Fome")
	require.Equal(t, input, result)
}

func TestApplyTopicPolicyTotalMatchesSum(t *testing.T) {
	inputs := []Evaluation{
		{Classification: OnTopic, Scores: Scores{10, 20, 30, 40, 50}},
		{Classification: Tangent, Scores: Scores{200, 200, 200, 200, 200}},
		{Classification: OffTopic, Scores: Scores{200, 200, 200, 200, 200}},
	}
	for _, input := range inputs {
		result := ApplyTopicPolicy(input, "t")
		sum := 0
		for competency := 1; competency <= CompetencyCount; competency++ {
			sum += result.Scores.Get(competency)
		}
		require.Equal(t, sum, result.Scores.Total())
	}
}
