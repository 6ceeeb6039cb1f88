// Package events publishes room lifecycle notifications to the message
// broker. Publishing is best effort: failures are logged and never surface
// to the caller.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/messaging"
)

const publishTimeout = 2 * time.Second

type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
	log      logging.Logger
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ, log logging.Logger) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
		log:      log,
	}
}

func (p *RoomPublisher) RoomCreated(roomID string) {
	p.publish(messaging.EventRoomCreated, roomID, "")
}

func (p *RoomPublisher) RoomDeleted(roomID string) {
	p.publish(messaging.EventRoomDeleted, roomID, "")
}

func (p *RoomPublisher) MemberJoined(roomID, username string) {
	p.publish(messaging.EventMemberJoined, roomID, username)
}

func (p *RoomPublisher) MemberLeft(roomID, username string) {
	p.publish(messaging.EventMemberLeft, roomID, username)
}

func (p *RoomPublisher) publish(routingKey, roomID, username string) {
	body, err := json.Marshal(messaging.RoomEvent{
		RoomID:    roomID,
		Username:  username,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.rabbitmq.PublishMessage(ctx, routingKey, body); err != nil {
		p.log.Warn(logging.RabbitMQ, logging.ExternalService, "publish failed", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.Event:        routingKey,
			logging.ErrorMessage: err.Error(),
		})
	}
}
