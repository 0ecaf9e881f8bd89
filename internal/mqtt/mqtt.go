// Package mqtt implements the sink.Publisher capability on top of the
// Eclipse paho client. One Client owns one outbound broker connection per
// process, reused for every publish.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// Config holds broker connection parameters. Zero values are filled from the
// default tags.
type Config struct {
	Host     string
	Port     int `default:"1883"`
	Username string
	Password string

	ClientID       string        `default:"metermon"`
	KeepAlive      time.Duration `default:"30s"`
	ConnectTimeout time.Duration `default:"10s"`
	PublishTimeout time.Duration `default:"5s"`
}

// Client is a paho-backed Publisher.
type Client struct {
	client paho.Client
	cfg    Config
	logger *logrus.Logger

	stopOnce sync.Once
}

// NewClient builds a broker client from cfg. The connection is established
// by Connect, not here.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	defaults.SetDefaults(&cfg)
	if logger == nil {
		logger = logrus.New()
	}

	c := &Client{cfg: cfg, logger: logger}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetConnectTimeout(cfg.ConnectTimeout)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.WithFields(logrus.Fields{
			"broker": cfg.Host,
			"port":   cfg.Port,
		}).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.WithError(err).Warn("mqtt connection lost")
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect establishes the broker connection, waiting for the initial
// handshake while respecting ctx.
func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Publish sends one payload at QoS 0 with the given retain flag. The wait is
// bounded so a stalled broker cannot block the caller indefinitely.
func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	token := c.client.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(c.cfg.PublishTimeout) {
		return fmt.Errorf("mqtt publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	c.logger.WithField("topic", topic).Debug("published reading")
	return nil
}

// Close disconnects from the broker. Idempotent.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		// Quiesce in-flight publishes for the given ms before dropping the
		// connection.
		c.client.Disconnect(250)
		c.logger.Info("mqtt disconnected")
	})
}
