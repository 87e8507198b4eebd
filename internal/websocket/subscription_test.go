package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControlMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"subscribe", `{"action": "subscribe", "entities": ["transaction", "account"]}`, ""},
		{"unsubscribe all listed", `{"action": "unsubscribe", "entities": ["recurring"]}`, ""},
		{"reset", `{"action": "subscribe"}`, ""},
		{"not json", `hello`, "decode control message"},
		{"unknown action", `{"action": "replay"}`, "unknown action"},
		{"unknown entity", `{"action": "subscribe", "entities": ["budget"]}`, "unknown entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseControlMessage([]byte(tt.raw))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubscriptions(t *testing.T) {
	var s subscriptions
	for _, e := range allEntities {
		assert.True(t, s.wants(e), "default should include %s", e)
	}

	s.apply(ControlMessage{Action: ActionUnsubscribe, Entities: []EntityType{EntityTypeRecurring}})
	assert.False(t, s.wants(EntityTypeRecurring))
	assert.True(t, s.wants(EntityTypeTransaction))
	assert.True(t, s.wants(EntityTypeAccount))

	s.apply(ControlMessage{Action: ActionSubscribe, Entities: []EntityType{EntityTypeAccount}})
	assert.True(t, s.wants(EntityTypeAccount))
	assert.False(t, s.wants(EntityTypeTransaction))

	s.apply(ControlMessage{Action: ActionSubscribe})
	for _, e := range allEntities {
		assert.True(t, s.wants(e), "reset should include %s", e)
	}
}

func TestParseEntityList(t *testing.T) {
	entities, err := ParseEntityList(" transaction, account ,")
	require.NoError(t, err)
	assert.Equal(t, []EntityType{EntityTypeTransaction, EntityTypeAccount}, entities)

	entities, err = ParseEntityList("")
	require.NoError(t, err)
	assert.Empty(t, entities)

	_, err = ParseEntityList("transaction,budget")
	assert.Error(t, err)
}
