package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/fariasdev/mycar-sync/internal/models"
)

// Notification channels. Overdue alerts split by level into the critical
// and high channels; upcoming alerts all land on the general channel.
const (
	TopicCritical = "mycar/alerts/critical"
	TopicHigh     = "mycar/alerts/high"
	TopicGeneral  = "mycar/alerts/general"
)

// channelPayload is the message published per channel per refresh.
type channelPayload struct {
	Title  string                `json:"title"`
	Count  int                   `json:"count"`
	Alerts []models.VehicleAlert `json:"alerts"`
}

// Notifier publishes generated alerts to the fixed notification channels
// over MQTT. It is the delivery half of the alert boundary; rendering the
// notifications is the subscriber's concern.
type Notifier struct {
	client mqtt.Client
}

// NewNotifier connects to the broker at MQTT_BROKER.
func NewNotifier() (*Notifier, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("mycar-sync-notifier").
		SetAutoReconnect(true).
		SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout for %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return &Notifier{client: client}, nil
}

// Publish fans the alert feed out to its channels. Empty channels publish
// nothing; the all-good sentinel is presentation state, not a notification.
func (n *Notifier) Publish(alerts []models.VehicleAlert) error {
	var critical, high, general []models.VehicleAlert
	for _, alert := range alerts {
		switch {
		case strings.HasPrefix(alert.ID, "overdue_") && alert.Level == models.AlertLevelCritical:
			critical = append(critical, alert)
		case strings.HasPrefix(alert.ID, "overdue_"):
			high = append(high, alert)
		case strings.HasPrefix(alert.ID, "upcoming_"):
			general = append(general, alert)
		}
	}

	if err := n.publishChannel(TopicCritical, "Mantenimiento CRÍTICO vencido", critical); err != nil {
		return err
	}
	if err := n.publishChannel(TopicHigh, "Mantenimiento importante vencido", high); err != nil {
		return err
	}
	return n.publishChannel(TopicGeneral, "Mantenimientos próximos", general)
}

func (n *Notifier) publishChannel(topic, title string, alerts []models.VehicleAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	payload, err := json.Marshal(channelPayload{Title: title, Count: len(alerts), Alerts: alerts})
	if err != nil {
		return fmt.Errorf("marshal notification error: %w", err)
	}
	token := n.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt publish timeout for %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish error: %w", err)
	}
	log.WithFields(log.Fields{"topic": topic, "count": len(alerts)}).Info("published alert notification")
	return nil
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.client.Disconnect(250)
}
