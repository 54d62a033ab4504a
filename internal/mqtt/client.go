// Package mqtt connects the service to an MQTT broker: alerts go out on
// <prefix>/alerts/<kind>, sensor readings come in on
// <prefix>/assets/<id>/condition.
package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	qosAtLeastOnce = 1
)

// Client is the subset of paho.Client used here.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// Connect dials the broker described by cfg and waits for the session.
func Connect(cfg config.MQTTConfig, log logrus.FieldLogger) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(paho.Client) {
			log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.WithError(err).Warn("Lost MQTT connection")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	if err := wait(client.Connect(), connectTimeout); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	return client, nil
}

// wait blocks until the token completes or the timeout passes.
func wait(token paho.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errors.New("timed out waiting for broker")
	}
	return token.Error()
}
