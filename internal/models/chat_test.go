package models_test

import (
	"strings"
	"testing"

	"saturn-chat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short stays verbatim", "hello saturn", "hello saturn"},
		{"exactly thirty", strings.Repeat("x", 30), strings.Repeat("x", 30)},
		{"long gets cut", strings.Repeat("x", 31), strings.Repeat("x", 30) + "..."},
		{"counts runes not bytes", strings.Repeat("ñ", 35), strings.Repeat("ñ", 30) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.DeriveTitle(tt.text))
		})
	}
}

func TestSenderValid(t *testing.T) {
	assert.True(t, models.SenderUser.Valid())
	assert.True(t, models.SenderBot.Valid())
	assert.False(t, models.Sender("system").Valid())
	assert.False(t, models.Sender("").Valid())
}
