// Package queue provides asynchronous document ingestion over RabbitMQ,
// so cmd/ingest can enqueue documents for a pool of worker processes
// instead of ingesting synchronously in the calling process.
package queue

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jasonaskew/docugraph/internal/util"
	"github.com/jasonaskew/docugraph/pkg/logger"
)

const (
	ingestQueue    = "ingest_queue"
	ingestQueueDLQ = "ingest_queue_dlq"
)

// Job is the wire payload published for a single document to ingest.
// Data is carried inline; large deployments should instead publish a
// storage key and have the worker fetch the bytes, but docugraph has no
// object-storage dependency in the corpus to ground that on.
type Job struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Data       []byte `json:"data"`
	Category   string `json:"category"`
	Division   string `json:"division"`
}

// Connect dials RabbitMQ from the DOCUGRAPH_AMQP_URL environment
// variable, falling back to a host/user/password composition from
// individual RABBITMQ_* variables.
func Connect() (*amqp.Connection, error) {
	url := util.GetEnv("DOCUGRAPH_AMQP_URL")
	if url == "" {
		user := util.GetEnvString("RABBITMQ_USER", "guest")
		pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
		host := util.GetEnvString("RABBITMQ_HOST", "localhost")
		port := util.GetEnvString("RABBITMQ_PORT", "5672")
		url = fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}
	return conn, nil
}

// SetupQueue declares the ingest queue and its dead-letter sibling.
func SetupQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(ingestQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue: declare %s: %w", ingestQueue, err)
	}
	if _, err := ch.QueueDeclare(ingestQueueDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue: declare %s: %w", ingestQueueDLQ, err)
	}
	return nil
}

// Publish enqueues a single ingestion job.
func Publish(ch *amqp.Channel, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	return ch.Publish("", ingestQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Consume starts delivering ingest jobs to handle until done is closed or
// the channel closes. Failed handling sends the message to the
// dead-letter queue instead of requeueing indefinitely.
func Consume(ch *amqp.Channel, done <-chan struct{}, handle func(Job) error) error {
	msgs, err := ch.Consume(ingestQueue, "docugraph_ingest_worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue: consume: %w", err)
	}
	for {
		select {
		case <-done:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var job Job
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.Error("queue: malformed job, routing to DLQ", "err", err)
				deadLetter(ch, msg)
				continue
			}
			if err := handle(job); err != nil {
				logger.Error("queue: ingest job failed, routing to DLQ", "document_id", job.DocumentID, "err", err)
				deadLetter(ch, msg)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("queue: ack failed", "err", err)
			}
		}
	}
}

func deadLetter(ch *amqp.Channel, msg amqp.Delivery) {
	pubErr := ch.Publish("", ingestQueueDLQ, false, false, amqp.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     msg.Headers,
	})
	if pubErr != nil {
		logger.Error("queue: failed to publish to DLQ", "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
