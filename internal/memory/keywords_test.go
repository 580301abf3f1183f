package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    []string
	}{
		{
			name:    "playbook and tooltip",
			comment: "Já consta no playbook, tooltip já explica",
			want:    []string{"fora_playbook", "tooltip"},
		},
		{
			name:    "structural change",
			comment: "Mudança estrutural da função no Daktus Studio",
			want:    []string{"mudanca_estrutural"},
		},
		{
			name:    "medical autonomy",
			comment: "Fica a critério médico do atendimento",
			want:    []string{"autonomia_medica"},
		},
		{
			name:    "exclusion criteria unaccented",
			comment: "Ajustar os criterios de exclusao do fluxo",
			want:    []string{"criterios_exclusao"},
		},
		{
			name:    "already implemented",
			comment: "Isso já ocorre na versão atual",
			want:    []string{"ja_implementado"},
		},
		{
			name:    "case insensitive",
			comment: "TOOLTIP da pergunta",
			want:    []string{"tooltip"},
		},
		{
			name:    "no triggers",
			comment: "Comentário genérico sem termos conhecidos",
			want:    []string{},
		},
		{
			name:    "empty comment",
			comment: "",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.comment)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, got)
		})
	}
}
