package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reservation-service/internal/config"
	"reservation-service/internal/infra/events"
	"reservation-service/internal/infra/events/kafka"
	"reservation-service/internal/infra/events/webhook"
)

func TestNewEventPublisher(t *testing.T) {
	log := zap.NewNop()

	pub, err := newEventPublisher(config.EventsConfig{Driver: "none"}, log)
	require.NoError(t, err)
	assert.IsType(t, &events.NoopPublisher{}, pub)

	pub, err = newEventPublisher(config.EventsConfig{}, log)
	require.NoError(t, err)
	assert.IsType(t, &events.NoopPublisher{}, pub)

	pub, err = newEventPublisher(config.EventsConfig{
		Driver: "kafka",
		Kafka:  config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "reservations"},
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &kafka.Publisher{}, pub)
	assert.NoError(t, pub.Close())

	pub, err = newEventPublisher(config.EventsConfig{
		Driver:  "webhook",
		Webhook: config.WebhookConfig{BaseURL: "http://localhost:8081", Endpoint: "/hooks/reservations"},
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &webhook.Publisher{}, pub)
}

func TestNewEventPublisher_Errors(t *testing.T) {
	log := zap.NewNop()

	pub, err := newEventPublisher(config.EventsConfig{Driver: "kafka"}, log)
	assert.Error(t, err, "no brokers")
	assert.Nil(t, pub, "a failed build must not leak a typed nil")

	_, err = newEventPublisher(config.EventsConfig{Driver: "sqs"}, log)
	assert.Error(t, err)
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "audit"}, names)

	migrate := app.Command("migrate")
	require.NotNil(t, migrate)
	assert.NotNil(t, migrate.Command("up"))
	assert.NotNil(t, migrate.Command("rollback"))
	assert.NotNil(t, migrate.Command("status"))
}
