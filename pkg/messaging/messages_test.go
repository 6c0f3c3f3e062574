package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordlens/pkg/vocab"
)

func TestEncodeUpdateHighlight(t *testing.T) {
	added := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	raw, err := Encode(UpdateHighlight{
		NewWord: "apple",
		Data:    vocab.Entry{Translation: "苹果", PartOfSpeech: "noun", Count: 0, AddedAt: added},
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "update_highlight", got["action"])
	assert.Equal(t, "apple", got["newWord"])
	data := got["data"].(map[string]interface{})
	assert.Equal(t, "苹果", data["translation"])
	assert.Equal(t, float64(0), data["count"], "count must be a JSON number")

	back, err := Decode(raw)
	require.NoError(t, err)
	upd, ok := back.(UpdateHighlight)
	require.True(t, ok)
	assert.Equal(t, "apple", upd.NewWord)
	assert.True(t, upd.Data.AddedAt.Equal(added))
}

func TestEncodeRefreshHighlight(t *testing.T) {
	raw, err := Encode(RefreshHighlight{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"refresh_highlight"}`, string(raw))

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionRefreshHighlight, msg.Action())
}

func TestDecodeRejects(t *testing.T) {
	for _, raw := range []string{
		`{"action":"explode"}`,
		`{"action":"update_highlight"}`,
		`not json`,
	} {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, raw)
	}
}
