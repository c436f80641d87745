package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/nikolaydubina/fpdecimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/matchingo/pkg/core"
)

// mockProducer implements just enough of sarama.SyncProducer for tests.
type mockProducer struct {
	sent []*sarama.ProducerMessage
}

func (m *mockProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	m.sent = append(m.sent, msg)
	return 0, 0, nil
}
func (m *mockProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	m.sent = append(m.sent, msgs...)
	return nil
}
func (m *mockProducer) Close() error                             { return nil }
func (m *mockProducer) TxnStatus() sarama.ProducerTxnStatusFlag   { return 0 }
func (m *mockProducer) BeginTxn() error                          { return nil }
func (m *mockProducer) CommitTxn() error                          { return nil }
func (m *mockProducer) AbortTxn() error                           { return nil }
func (m *mockProducer) IsTransactional() bool                     { return false }
func (m *mockProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error {
	return nil
}
func (m *mockProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return nil
}

func withMockProducer(t *testing.T, mock sarama.SyncProducer) {
	old := newSyncProducer
	newSyncProducer = func(addrs []string, cfg *sarama.Config) (sarama.SyncProducer, error) {
		return mock, nil
	}
	t.Cleanup(func() { newSyncProducer = old })
}

func TestRecordFillPublishesJSON(t *testing.T) {
	mock := &mockProducer{}
	withMockProducer(t, mock)

	sink, err := NewFillSink([]string{"localhost:9092"}, "fills")
	require.NoError(t, err)
	defer sink.Close()

	fill := core.Fill{
		TakerOrderID: "taker-1",
		MakerOrderID: "maker-1",
		Price:        fpdecimal.FromFloat(100.5),
		Size:         fpdecimal.FromFloat(2.0),
		Timestamp:    42,
		TakerOrigin:  core.Maker,
		MakerOrigin:  core.Exchange,
	}

	require.NoError(t, sink.RecordFill(fill))
	require.Len(t, mock.sent, 1)
	assert.Equal(t, "fills", mock.sent[0].Topic)
}

func TestRecordFillDefaultsTopic(t *testing.T) {
	mock := &mockProducer{}
	withMockProducer(t, mock)

	sink, err := NewFillSink([]string{"localhost:9092"}, "")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.RecordFill(core.Fill{MakerOrderID: "m1", Price: fpdecimal.Zero, Size: fpdecimal.Zero}))
	assert.Equal(t, defaultTopic, mock.sent[0].Topic)
}

func TestPoolRecordFillReturnsSinkOnSuccess(t *testing.T) {
	mock := &mockProducer{}
	withMockProducer(t, mock)

	pool, err := NewPool(2, []string{"localhost:9092"}, "fills")
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pool.RecordFill(core.Fill{MakerOrderID: "m1", Price: fpdecimal.Zero, Size: fpdecimal.Zero}))
	// Both sinks should still be available: one was borrowed and returned.
	assert.Equal(t, 2, len(pool.free))
}
