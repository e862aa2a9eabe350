package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"gotest.tools/v3/assert"
)

type clearerMock struct {
	m       sync.Mutex
	cleared []string
}

func (c *clearerMock) Clear(_ context.Context, owner string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.cleared = append(c.cleared, owner)
	return domain.Empty(owner), nil
}

func (c *clearerMock) clearedOwners() []string {
	c.m.Lock()
	defer c.m.Unlock()
	return append([]string(nil), c.cleared...)
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	// Start Kafka container using testcontainers Kafka module
	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	// Get broker address
	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	topicConfigs := []kafkaGo.TopicConfig{{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_ClearsCartOnCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, cleanupKafka := setupKafka(t)
	defer cleanupKafka()

	const topic = "checkout-completed"
	createTopic(t, broker, topic)

	clearer := &clearerMock{}
	p := New(clearer, topic, broker)
	defer p.Close()
	go p.Run(ctx)

	w := &kafkaGo.Writer{
		Addr:  kafkaGo.TCP(broker),
		Topic: topic,
	}
	defer w.Close()

	payload, err := json.Marshal(map[string]string{"owner": "user-42"})
	require.NoError(t, err)
	err = w.WriteMessages(ctx, kafkaGo.Message{Value: payload})
	require.NoError(t, err)

	// Also a malformed message the poller must survive.
	err = w.WriteMessages(ctx, kafkaGo.Message{Value: []byte("{broken")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(clearer.clearedOwners()) == 1
	}, 30*time.Second, 250*time.Millisecond)

	assert.Equal(t, clearer.clearedOwners()[0], "user-42")
}
