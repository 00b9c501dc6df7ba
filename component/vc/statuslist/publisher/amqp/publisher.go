/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package amqp hands changed status list encodings to the external re-signer
// over an AMQP queue. The engine publishes after every committed revocation;
// the consumer on the other side re-signs the status list credential and
// republishes it.
package amqp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	statuslistapi "github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const contentTypeJSON = "application/json"

// Publisher publishes status list publications onto a durable queue.
type Publisher struct {
	queueName string
	conn      *amqp.Connection
	ch        *amqp.Channel
	que       amqp.Queue
}

// Option configures the publisher before it connects.
type Option func(*config)

type config struct {
	certFile string
	keyFile  string
}

// WithTLS makes the publisher dial the broker with the given client
// certificate.
func WithTLS(certFile, keyFile string) Option {
	return func(c *config) {
		c.certFile = certFile
		c.keyFile = keyFile
	}
}

// NewPublisher connects to the AMQP broker and declares the durable
// publication queue.
func NewPublisher(amqpServerURL, queueName string, opts ...Option) (*Publisher, error) {
	if amqpServerURL == "" {
		return nil, errors.New("AMQP URL is mandatory")
	}

	if queueName == "" {
		return nil, errors.New("queue name is mandatory")
	}

	cfg := &config{}

	for _, opt := range opts {
		opt(cfg)
	}

	conn, err := connect(amqpServerURL, cfg)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get channel")
	}

	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to declare queue")
	}

	return &Publisher{
		queueName: queueName,
		conn:      conn,
		ch:        ch,
		que:       q,
	}, nil
}

func connect(amqpServerURL string, cfg *config) (*amqp.Connection, error) {
	if cfg.certFile != "" && cfg.keyFile != "" {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS13}
		tlsConfig.Certificates = make([]tls.Certificate, 1)

		var err error

		tlsConfig.Certificates[0], err = tls.LoadX509KeyPair(cfg.certFile, cfg.keyFile)
		if err != nil {
			return nil, errors.Wrap(err, "invalid cert")
		}

		conn, err := amqp.DialTLS(amqpServerURL, tlsConfig)
		if err != nil {
			return nil, errors.Wrap(err, "unable to connect to AMQP server")
		}

		return conn, nil
	}

	conn, err := amqp.Dial(amqpServerURL)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to AMQP server at %s", amqpServerURL)
	}

	return conn, nil
}

// Publish puts the publication onto the queue as a persistent JSON message.
func (p *Publisher) Publish(_ context.Context, publication *statuslistapi.Publication) error {
	body, err := json.Marshal(publication)
	if err != nil {
		return errors.Wrap(err, "unable to marshal publication")
	}

	err = p.ch.Publish(
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return errors.Wrapf(err, "unable to publish status list for %s", publication.Issuer)
	}

	return nil
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return fmt.Errorf("channel shutdown failed: %w", err)
	}

	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("connection shutdown failed: %w", err)
	}

	return nil
}
