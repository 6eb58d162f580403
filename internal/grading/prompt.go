package grading

import (
	"fmt"
	"strings"

	"github.com/noah-isme/preparai-api/pkg/ai"
)

const (
	essayTemperature = 0.4
	themeTemperature = 0.8
)

const essayRubric = `Atue como corretor oficial do ENEM. Seja rigoroso e avalie as 5 competências.

O TEMA DA REDAÇÃO É: "%s"

Siga estas etapas na ordem, sem pular nenhuma:

ETAPA 1 - CLASSIFICAÇÃO DO TEMA (escolha exatamente uma):
- "FUGA": o texto trata de um assunto totalmente diferente do tema.
- "TANGENTE": o texto trata do assunto geral, mas ignora o recorte específico do tema.
- "OK": o texto aborda corretamente o recorte específico do tema.

ETAPA 2 - TRANSCRIÇÃO:
- Se receber uma imagem, transcreva fielmente o texto manuscrito para "texto_transcrito".
- Se receber apenas texto, copie o texto recebido, sem alterações, para "texto_transcrito".

ETAPA 3 - NOTAS:
- Atribua a cada competência (c1 a c5) um número inteiro entre 0 e 200.
- As competências são avaliadas de forma independente.

SAÍDA OBRIGATÓRIA: um único objeto JSON, sem markdown e sem nenhum texto fora dele:
{
  "situacao_tema": "FUGA" | "TANGENTE" | "OK",
  "texto_transcrito": "texto completo",
  "notas": {"c1": 0, "c2": 0, "c3": 0, "c4": 0, "c5": 0},
  "comentario_geral": "resumo da correção em até 3 linhas",
  "detalhes_competencias": {"c1": "...", "c2": "...", "c3": "...", "c4": "...", "c5": "..."}
}`

const themePrompt = `Você é especialista no ENEM. Crie um tema de redação inédito e completo, no mesmo formato
do exame, com 3 textos motivadores de apoio.
Responda APENAS com um objeto JSON válido, sem markdown:
{"tema": "Título do tema", "texto_apoio": "Texto motivador 1... Texto motivador 2... Texto motivador 3..."}`

// EssayRubric returns the grading instructions for the given theme title.
func EssayRubric(title string) string {
	return fmt.Sprintf(essayRubric, title)
}

// BuildEssayRequest assembles the grading request. Text essays are interpolated into the user
// prompt; image essays are attached as an image reference alongside a short instruction.
func BuildEssayRequest(title string, modality ai.Modality, content string) (ai.Request, error) {
	if strings.TrimSpace(content) == "" {
		return ai.Request{}, ErrEmptySubmission
	}

	request := ai.Request{
		Operation:    "essay_grading",
		Instructions: EssayRubric(title),
		Modality:     modality,
		Temperature:  essayTemperature,
		JSONOutput:   true,
	}

	switch modality {
	case ai.ModalityImage:
		request.Prompt = fmt.Sprintf("O tema da redação é: '%s'. Transcreva e corrija a redação desta imagem.", title)
		request.Content = content
	case ai.ModalityText:
		request.Prompt = fmt.Sprintf("Tema: '%s'.\nRedação:\n%s", title, content)
	default:
		return ai.Request{}, fmt.Errorf("unsupported modality %q", modality)
	}

	return request, nil
}

// BuildThemeRequest assembles the theme generation request.
func BuildThemeRequest() ai.Request {
	return ai.Request{
		Operation:   "theme_generation",
		Prompt:      themePrompt,
		Modality:    ai.ModalityText,
		Temperature: themeTemperature,
		JSONOutput:  true,
	}
}
