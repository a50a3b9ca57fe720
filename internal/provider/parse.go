package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"quizterios-service/internal/domain"
)

// wireQuestion is the JSON object the model is asked to produce.
type wireQuestion struct {
	Topic       string            `json:"tema"`
	Text        string            `json:"pergunta"`
	Choices     map[string]string `json:"alternativas"`
	Correct     string            `json:"resposta_correta"`
	Explanation string            `json:"explicacao"`
}

// ExtractJSONObject returns the substring from the first '{' to the last '}'
// inclusive. Prose around the object is discarded.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no json object in response", domain.ErrParse)
	}
	return text[start : end+1], nil
}

// ParseQuestion extracts and validates a question from free-form model output.
func ParseQuestion(text string) (domain.Question, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return domain.Question{}, err
	}

	var wire wireQuestion
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return domain.Question{}, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}

	q := domain.Question{
		Topic:       strings.TrimSpace(wire.Topic),
		Text:        strings.TrimSpace(wire.Text),
		Choices:     make(map[domain.ChoiceKey]string, len(wire.Choices)),
		Correct:     domain.ChoiceKey(strings.ToLower(strings.TrimSpace(wire.Correct))),
		Explanation: strings.TrimSpace(wire.Explanation),
	}
	for key, choice := range wire.Choices {
		k := domain.ChoiceKey(strings.ToLower(strings.TrimSpace(key)))
		if !k.Valid() {
			return domain.Question{}, fmt.Errorf("%w: unexpected choice key %q", domain.ErrParse, key)
		}
		q.Choices[k] = strings.TrimSpace(choice)
	}

	if err := q.Validate(); err != nil {
		return domain.Question{}, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	return q, nil
}
