package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineDropsEmptyRows(t *testing.T) {
	m := Inline(
		Row(Button("A", "grp_sel", "1")),
		Row(),
		Row(Button("<", "grp_page", "0"), Button(">", "grp_page", "2")),
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "grp_sel|1", m.InlineKeyboard[0][0].Data)
	assert.Empty(t, m.InlineKeyboard[0][0].Unique)
	assert.Len(t, m.InlineKeyboard[1], 2)
}

func TestLink(t *testing.T) {
	m := Inline(Row(Link("Register", "https://t.me/bot?start=register_-1")))
	require.Len(t, m.InlineKeyboard, 1)
	assert.Equal(t, "https://t.me/bot?start=register_-1", m.InlineKeyboard[0][0].URL)
	assert.Empty(t, m.InlineKeyboard[0][0].Data)
}
