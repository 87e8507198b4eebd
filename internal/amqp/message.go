package amqp

import (
	"encoding/json"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// LedgerMessage is the body published for every ledger event
type LedgerMessage struct {
	WorkspaceID int32           `json:"workspaceId"`
	Event       websocket.Event `json:"event"`
}

// RoutingKey is "ledger.<entity>.<action>", e.g. ledger.transaction.created, so
// consumers of a topic exchange can bind on ledger.transaction.* or ledger.#
func RoutingKey(event websocket.Event) string {
	return "ledger." + event.Type
}

func buildPublishing(workspaceID int32, event websocket.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(LedgerMessage{WorkspaceID: workspaceID, Event: event})
	if err != nil {
		return amqp091.Publishing{}, err
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ts,
		Type:         event.Type,
		Body:         body,
	}, nil
}
