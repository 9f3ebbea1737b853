package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"Weave/config"
)

const (
	DelayedExchange = "notify.delayed"
	EventsExchange  = "events.topic"

	DeliverQueue          = "notify.deliver"
	InteractionEventQueue = "events.interaction"
	UIIntentQueue         = "events.ui_intent"

	DeliverRoutingPrefix     = "notify.deliver"
	InteractionRoutingPrefix = "interaction"
	UIRoutingPrefix          = "ui"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		url := config.Cfg.GetRabbitMQURL()
		conn, connErr = amqp.Dial(url)
		if connErr != nil {
			return
		}

		connErr = declareTopology()
	})

	return connErr
}

func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// declareTopology 声明交换机和队列
// notify.delayed 依赖 rabbitmq_delayed_message_exchange 插件
func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel for topology: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		DelayedExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "topic"},
	); err != nil {
		return fmt.Errorf("failed to declare delayed exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare events exchange: %w", err)
	}

	queues := []struct {
		name     string
		exchange string
		key      string
	}{
		{DeliverQueue, DelayedExchange, DeliverRoutingPrefix + ".#"},
		{InteractionEventQueue, EventsExchange, InteractionRoutingPrefix + ".#"},
		{UIIntentQueue, EventsExchange, UIRoutingPrefix + ".#"},
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, q.key, q.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", q.name, err)
		}
	}

	return nil
}
