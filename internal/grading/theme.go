package grading

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PlaceholderThemeID references the pre-seeded theme used when no theme is supplied.
	PlaceholderThemeID uint = 1
	// PlaceholderThemeTitle is the display title used whenever a theme cannot be resolved.
	PlaceholderThemeTitle = "Tema Livre / Não informado"
	// FallbackSupportText accompanies every fallback theme.
	FallbackSupportText = "Backup: IA indisponível."
)

// FallbackThemes are the pre-authored themes served when generation is unavailable.
var FallbackThemes = [...]string{
	"Os desafios do combate à fome no Brasil",
	"A importância da preservação da Amazônia",
	"Impactos da inteligência artificial no mercado de trabalho",
	"Caminhos para combater a intolerância religiosa no Brasil",
	"A democratização do acesso ao cinema no Brasil",
	"Desafios para a valorização de comunidades e povos tradicionais no Brasil",
	"Estigmas associados às doenças mentais na sociedade brasileira",
}

// GeneratedTheme is an essay theme ready to be presented to a student.
type GeneratedTheme struct {
	ID            uint
	Title         string
	SupportText   string
	GeneratedByAI bool
}

// FallbackTheme picks one of the fallback themes by day of year. It never fails.
func FallbackTheme(now time.Time) GeneratedTheme {
	index := now.YearDay() % len(FallbackThemes)
	return GeneratedTheme{
		ID:          PlaceholderThemeID,
		Title:       FallbackThemes[index],
		SupportText: FallbackSupportText,
	}
}

// ParseGeneratedTheme extracts a theme from a generation reply. The support text may be a
// string or a list of motivating texts.
func ParseGeneratedTheme(raw string) (GeneratedTheme, error) {
	payload, err := decodeObject(raw)
	if err != nil {
		return GeneratedTheme{}, err
	}

	title := strings.TrimSpace(stringField(payload, []string{"tema", "title", "theme"}))
	if title == "" {
		return GeneratedTheme{}, fmt.Errorf("%w: theme title missing", ErrMalformedOutput)
	}

	support := ""
	if value, ok := lookup(payload, []string{"texto_apoio", "support_text", "supportText"}); ok {
		switch typed := value.(type) {
		case string:
			support = strings.TrimSpace(typed)
		case []interface{}:
			parts := make([]string, 0, len(typed))
			for _, item := range typed {
				if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
					parts = append(parts, strings.TrimSpace(text))
				}
			}
			support = strings.Join(parts, "\n\n")
		}
	}

	return GeneratedTheme{Title: title, SupportText: support, GeneratedByAI: true}, nil
}
