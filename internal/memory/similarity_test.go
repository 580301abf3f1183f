package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Remover Verificação", "remover verificação"},
		{"punctuation stripped", "tooltip, já explica!", "tooltip já explica"},
		{"whitespace collapsed", "  dois   espaços \n aqui ", "dois espaços aqui"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeText(tt.in))
		})
	}
}

func TestLexicalSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, lexicalSimilarity(
		"Remover verificação de pressão arterial",
		"remover verificação de pressão arterial!",
	))

	assert.Equal(t, 0.0, lexicalSimilarity("tooltip da pergunta", "critérios de exclusão"))
	assert.Equal(t, 0.0, lexicalSimilarity("", "qualquer texto"))

	// Short words do not count toward the overlap.
	assert.Equal(t, 0.0, lexicalSimilarity("de a o", "de a o critério"))

	partial := lexicalSimilarity(
		"Remover verificação de pressão arterial",
		"Remover verificação de temperatura",
	)
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}
