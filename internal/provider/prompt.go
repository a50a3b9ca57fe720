package provider

import "fmt"

// DefaultModel is the generator model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `Gere uma pergunta fácil ou média de múltipla escolha sobre o seguinte tema:
Tema: %[1]s

Formato da resposta:
Responda estritamente em JSON válido (não envie explicações fora do JSON, nem texto adicional antes ou depois).

{
  "tema": "%[1]s",
  "pergunta": "Texto da pergunta aqui",
  "alternativas": {
    "a": "Texto da alternativa A",
    "b": "Texto da alternativa B",
    "c": "Texto da alternativa C",
    "d": "Texto da alternativa D"
  },
  "resposta_correta": "Letra da resposta correta (exemplo: 'a', 'b', 'c' ou 'd')",
  "explicacao": "Uma breve explicação (máximo 2 frases) dizendo por que essa resposta está correta."
}
`

// BuildPrompt renders the generation request for one question on topic.
func BuildPrompt(topic string) string {
	return fmt.Sprintf(promptTemplate, topic)
}
