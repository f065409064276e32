//go:build integration
// +build integration

// The build tag 'integration' allows separating integration tests from unit tests.
// Run unit tests with: go test ./...
// Run integration tests with: go test -tags=integration ./...

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

func TestPublishConsumeDesignTask(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.11-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")
	defer func() {
		if err := rabbitmqContainer.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate RabbitMQ container: %v", err)
		}
	}()

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	publisher, err := NewRabbitMQPublisher(connStr)
	require.NoError(t, err, "Failed to create publisher")
	defer publisher.Close()

	receiver, err := NewRabbitMQReceiver(connStr)
	require.NoError(t, err, "Failed to create receiver")
	defer receiver.Close()

	payload := DesignTaskPayload{
		JobID:          42,
		ModelID:        12,
		OrganismID:     4,
		OrganismName:   "Escherichia coli",
		ProductName:    "vanillin",
		MaxPredictions: 3,
		Aerobic:        true,
		BiGG:           true,
		Rhea:           true,
	}
	require.NoError(t, publisher.PublishDesignTask(ctx, payload), "Failed to publish design task")

	select {
	case task := <-receiver.Tasks():
		assert.Equal(t, JobsQueue, task.Type())
		var decoded DesignTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
		assert.Equal(t, payload.JobID, decoded.JobID)
		assert.Equal(t, payload.ProductName, decoded.ProductName)
		require.NoError(t, task.Ack())
	case <-ctx.Done():
		t.Fatal("Timed out waiting for the design task")
	}
}
