package notificationservice

import (
	"context"
	"errors"

	"github.com/google/uuid"

	service "coffee-order/internal/app/notificationservice"
	"coffee-order/internal/notify"
	"coffee-order/internal/shared/config"
	"coffee-order/internal/shared/logger"
	"coffee-order/internal/shared/mqtt"
)

// Run wires the live notification feed and blocks until ctx is cancelled or
// the broker rejects the configuration permanently.
func Run(ctx context.Context, configPath string) error {
	log := logger.New("notification-subscriber")
	defer log.Sync()

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	transport, err := mqtt.NewPahoTransport(
		cfg.Broker.Endpoint,
		cfg.Broker.Username,
		cfg.Broker.Password,
		cfg.Broker.ClientIDPrefix+"-notify-"+uuid.NewString(),
	)
	if err != nil {
		log.Error(ctx, "broker_config_invalid", "Broker configuration rejected", err)
		return err
	}

	client := mqtt.New(transport, mqtt.Options{
		AckTimeout:     cfg.Broker.AckTimeout.Std(),
		InitialBackoff: cfg.Broker.InitialBackoff.Std(),
		MaxBackoff:     cfg.Broker.MaxBackoff.Std(),
	}, log)

	dispatcher := notify.NewDispatcher(client, cfg.Broker.QueueSize, log)
	feed := service.NewFeed(dispatcher, log)
	defer feed.Stop()

	// demultiplex every inbound message through the dispatcher
	client.OnMessage(dispatcher.HandleRaw)
	client.OnStateChange(func(state mqtt.State) {
		log.Info(ctx, "broker_state_changed", "Broker connection state changed",
			map[string]any{"state": string(state)})
	})

	fatal := make(chan error, 1)
	client.OnFatal(func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})

	// registered before Start: replayed automatically on every reconnect
	if err := client.Subscribe(notify.StatusFilter); err != nil {
		log.Error(ctx, "broker_subscribe_failed", "Failed to register status subscription", err)
	}
	if err := client.Subscribe(notify.PaymentFilter); err != nil {
		log.Error(ctx, "broker_subscribe_failed", "Failed to register payment subscription", err)
	}

	client.Start()
	defer client.Stop()

	log.Info(ctx, "service_started", "Notification subscriber started",
		map[string]any{"broker": cfg.Broker.Endpoint})

	select {
	case <-ctx.Done():
		log.Info(ctx, "graceful_shutdown", "Notification subscriber stopped", nil)
		return nil
	case err := <-fatal:
		return errors.Join(errors.New("broker connection failed permanently"), err)
	}
}
