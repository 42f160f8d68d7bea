package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/rosterbot/core/telegram/teletest"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"plain", &tele.Callback{Data: "grp_page|2"}, "grp_page", "2"},
		{"negative id", &tele.Callback{Data: "grp_sel|-100123"}, "grp_sel", "-100123"},
		{"no payload", &tele.Callback{Data: "grp_page"}, "grp_page", ""},
		{"telebot unique prefix", &tele.Callback{Data: "\fgrp_page|3"}, "grp_page", "3"},
		{"unique already split", &tele.Callback{Unique: "grp_sel", Data: "5"}, "grp_sel", "5"},
		{"payload keeps separator", &tele.Callback{Data: "k|a|b"}, "k", "a|b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.key, k)
			assert.Equal(t, tt.payload, p)
		})
	}
}

func TestData(t *testing.T) {
	assert.Equal(t, "grp_page|1", Data("grp_page", "1"))
}

func TestPayloadNumbers(t *testing.T) {
	user := &tele.User{ID: 1}
	chat := &tele.Chat{ID: 1, Type: tele.ChatPrivate}

	n, err := PayloadInt(teletest.Callback(user, chat, "grp_page| 3 "))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	id, err := PayloadInt64(teletest.Callback(user, chat, "grp_sel|-1001234567890"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)

	_, err = PayloadInt(teletest.Callback(user, chat, "grp_page|x"))
	assert.Error(t, err)
}
