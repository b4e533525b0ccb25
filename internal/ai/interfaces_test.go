package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenguard/internal/models"
)

func TestSplitSystem(t *testing.T) {
	system, turns := SplitSystem([]models.ChatMessage{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "r"},
	})

	assert.Equal(t, "a\n\nb", system)
	require.Len(t, turns, 2)
	assert.Equal(t, "u", turns[0].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
}
