// Package kafka implements the Fill Sink: a durable log of executed
// fills, published to Kafka for downstream settlement and accounting.
package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/orderflow/matchingo/pkg/core"
)

const defaultTopic = "matchingo-fills"

// newSyncProducer is overridden in tests to inject a mock producer.
var newSyncProducer = sarama.NewSyncProducer

// fillRecord is the JSON wire encoding of a core.Fill.
type fillRecord struct {
	TakerOrderID string `json:"taker_order_id"`
	MakerOrderID string `json:"maker_order_id"`
	Price        string `json:"price"`
	Size         string `json:"size"`
	Timestamp    int64  `json:"timestamp"`
	TakerOrigin  string `json:"taker_origin"`
	MakerOrigin  string `json:"maker_origin"`
}

func toRecord(f core.Fill) fillRecord {
	return fillRecord{
		TakerOrderID: f.TakerOrderID,
		MakerOrderID: f.MakerOrderID,
		Price:        f.Price.String(),
		Size:         f.Size.String(),
		Timestamp:    f.Timestamp,
		TakerOrigin:  f.TakerOrigin.String(),
		MakerOrigin:  f.MakerOrigin.String(),
	}
}

// FillSink publishes Fills to a Kafka topic, one JSON message per fill,
// keyed by maker order id so a topic compaction keeps the latest state
// per resting order.
type FillSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewFillSink dials brokers and constructs a FillSink publishing to
// topic. Required acks is set to WaitForAll: a fill record lost after
// ack would silently corrupt downstream P&L.
func NewFillSink(brokers []string, topic string) (*FillSink, error) {
	if topic == "" {
		topic = defaultTopic
	}
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true

	producer, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("sink: create producer: %w", err)
	}

	return &FillSink{producer: producer, topic: topic}, nil
}

// RecordFill publishes f to the sink's topic.
func (s *FillSink) RecordFill(f core.Fill) error {
	data, err := json.Marshal(toRecord(f))
	if err != nil {
		return fmt.Errorf("sink: marshal fill: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(f.MakerOrderID),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("sink: send fill: %w", err)
	}
	return nil
}

// Close releases the underlying producer connection.
func (s *FillSink) Close() error {
	return s.producer.Close()
}
