package app

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/messaging/kafka"
	"github.com/danielcaamal/orders-ms/internal/service/orders"
)

const paymentConsumerRetries = 3

// initKafkaProducer initializes the Kafka producer when brokers are
// configured. Returns nil, nil when brokers is empty.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// initPaymentConsumer subscribes to the payment-succeeded topic and applies
// each notification to the order service. Exhausted messages land in the
// dead letter queue.
func initPaymentConsumer(brokers []string, groupID string, svc *orders.Service, dlqProducer *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	handler := paymentSucceededHandler(svc, logger)
	return kafka.NewConsumerWithDLQ(
		brokers,
		groupID,
		[]string{kafka.TopicPaymentSucceeded},
		handler,
		dlqProducer,
		paymentConsumerRetries,
	)
}

// paymentSucceededHandler turns broker notifications into payment-success
// records. A malformed payload or an unknown order is returned as an error
// so the redelivery path (and ultimately the DLQ) handles it.
func paymentSucceededHandler(svc *orders.Service, logger *log.Entry) kafka.MessageHandler {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParsePaymentSucceededEvent(message)
		if err != nil {
			return err
		}

		_, err = svc.RecordPaymentSuccess(domain.PaymentSucceeded{
			OrderID:        event.OrderID,
			StripeChargeID: event.StripePaymentID,
			ReceiptURL:     event.ReceiptURL,
		})
		if err != nil {
			return err
		}

		logger.WithField("order_id", event.OrderID).Info("payment success recorded")
		return nil
	}
}

// closeKafka closes the Kafka producer if it is non-nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
