package grading

import "fmt"

// tangentCappedCompetencies lists the competencies limited to TangentCap on tangential essays.
var tangentCappedCompetencies = []int{2, 3, 5}

// OffTopicComment is the general comment stored for essays that escape the theme.
func OffTopicComment(title string) string {
	return fmt.Sprintf("REDAÇÃO ZERADA. Fuga ao tema '%s'.", title)
}

// TangentComment is the general comment stored for essays that only tangent the theme.
func TangentComment(title string) string {
	return fmt.Sprintf("NOTA REBAIXADA. Você tangenciou o tema '%s'.", title)
}

// ApplyTopicPolicy returns a copy of the evaluation with the topic-adherence rules applied:
// off-topic essays are zeroed, tangential essays have competencies 2, 3 and 5 capped and
// on-topic essays are returned unchanged. The input is never modified.
func ApplyTopicPolicy(evaluation Evaluation, title string) Evaluation {
	result := evaluation
	result.CompetencyComments = make(map[int]string, len(evaluation.CompetencyComments))
	for competency, comment := range evaluation.CompetencyComments {
		result.CompetencyComments[competency] = comment
	}

	switch evaluation.Classification {
	case OffTopic:
		result.Scores = Scores{}
		result.GeneralComment = OffTopicComment(title)
	case Tangent:
		for _, competency := range tangentCappedCompetencies {
			if result.Scores.Get(competency) > TangentCap {
				result.Scores.Set(competency, TangentCap)
			}
		}
		result.GeneralComment = TangentComment(title)
	}

	return result
}
