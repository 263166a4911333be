package event

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type Producer interface {
	Produce(ctx context.Context, msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

type SaramaProducer struct {
	producer sarama.SyncProducer
}

var _ Producer = (*SaramaProducer)(nil)

func NewSaramaProducer(producer sarama.SyncProducer) *SaramaProducer {
	return &SaramaProducer{producer: producer}
}

func (p *SaramaProducer) Produce(ctx context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return p.producer.SendMessage(msg)
}

func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}

// NopProducer 未配置 kafka 时使用, 丢弃所有消息
type NopProducer struct{}

var _ Producer = NopProducer{}

func (NopProducer) Produce(context.Context, *sarama.ProducerMessage) (int32, int64, error) {
	return 0, 0, nil
}

func (NopProducer) Close() error {
	return nil
}

// NewDuelProducerMessage 构造发往 DuelTopic 的消息
func NewDuelProducerMessage(msg *DuelMessage) (*sarama.ProducerMessage, error) {
	val, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("NewDuelProducerMessage failed at marshal: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic: DuelTopic,
		Key:   sarama.StringEncoder(msg.DuelID),
		Value: sarama.ByteEncoder(val),
	}, nil
}
