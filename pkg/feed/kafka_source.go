// Package feed implements replay.Source adapters that pull a book-event
// stream from an external transport, for live and recorded replay.
package feed

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/orderflow/matchingo/pkg/replay"
)

// KafkaSource pulls a book-event stream from a Kafka topic, one message
// per replay.Event, JSON-encoded per the event input schema. It reads
// as a consumer group member, so partitions are rebalanced across
// members automatically and each message's offset is committed when
// Next reads it, before the caller has applied the event.
type KafkaSource struct {
	reader *kafkago.Reader
}

// NewKafkaSource constructs a KafkaSource reading topic from brokers as
// part of consumer group groupID.
func NewKafkaSource(brokers []string, topic, groupID string) *KafkaSource {
	return &KafkaSource{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// Next implements replay.Source, blocking until the next event is
// available, ctx is canceled, or the reader is closed.
func (k *KafkaSource) Next(ctx context.Context) (replay.Event, error) {
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return replay.Event{}, fmt.Errorf("feed: read message: %w", err)
	}
	return replay.DecodeEventJSON(msg.Value)
}

// Close releases the underlying consumer group connection.
func (k *KafkaSource) Close() error {
	return k.reader.Close()
}
