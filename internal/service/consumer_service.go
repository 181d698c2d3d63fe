// FILE: internal/service/consumer_service.go
package service

import (
	"context"

	"billing-sync-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NotificationEnqueuedTopic carries queue kicks between the enqueue path and
// the sweep consumer.
const NotificationEnqueuedTopic = "notification.enqueued"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// channelKicker publishes an empty message per kick. A lost kick only delays
// delivery until the scheduled sweep.
type channelKicker struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewChannelKicker(pubSub *gochannel.GoChannel, topicName string, logger logger.ILogger) QueueKicker {
	return &channelKicker{pubSub: pubSub, topicName: topicName, logger: logger}
}

func (k *channelKicker) Kick(ctx context.Context) {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := k.pubSub.Publish(k.topicName, msg); err != nil {
		k.logger.Warn("QUEUE", "Failed to publish queue kick", map[string]interface{}{"error": err.Error()})
	}
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	queue     INotificationQueueService
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	queue INotificationQueueService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		queue:     queue,
		logger:    logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Kicks are hints; failures are left to the scheduled sweep, so always ack.
	defer msg.Ack()

	if _, err := cs.queue.Sweep(ctx); err != nil {
		cs.logger.Error("QUEUE", "Kicked sweep failed", map[string]interface{}{"error": err.Error()})
	}
}
