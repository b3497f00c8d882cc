// Package markers delivers map marker commands to the rendering surface over NATS.
package markers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
)

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Metrics receives the outcome of every publish.
type Metrics interface {
	ObserveMarkers(err error)
}

// NATSPublisher is an isochrone.MarkerSink publishing JSON commands on
// "<subject>.<client>", or "<subject>.broadcast" for anonymous computations.
type NATSPublisher struct {
	nc      conn
	subject string
	metrics Metrics
	logger  *slog.Logger
}

var _ isochrone.MarkerSink = (*NATSPublisher)(nil)

func Connect(url, subject string, m Metrics, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("transitfinder"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.LogError(logger, "nats disconnected", err, slog.String("component", "markers"))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.LogOperation(logger, "nats_reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return newPublisher(nc, subject, m, logger), nil
}

func newPublisher(nc conn, subject string, m Metrics, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: strings.TrimSuffix(subject, "."), metrics: m, logger: logger}
}

func (p *NATSPublisher) PublishMarkers(ctx context.Context, cmd isochrone.MarkerCommand) error {
	err := p.publish(ctx, cmd)
	if p.metrics != nil {
		p.metrics.ObserveMarkers(err)
	}
	return err
}

func (p *NATSPublisher) publish(ctx context.Context, cmd isochrone.MarkerCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding marker command: %w", err)
	}

	subject := p.Subject(cmd.ClientID)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing %s: %w", subject, err)
	}
	return nil
}

// Subject is where commands for client are published.
func (p *NATSPublisher) Subject(client string) string {
	if strings.TrimSpace(client) == "" {
		return p.subject + ".broadcast"
	}
	return p.subject + "." + subjectToken(client)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() (err error) {
	defer logging.HandleDeferredError(&err, p.nc.Drain, p.logger, "nats_drain")
	return nil
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// tokens cannot contain whitespace, wildcards or separators
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
