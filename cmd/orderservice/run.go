package orderservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"coffee-order/internal/adapter/memory"
	service "coffee-order/internal/app/orderservice"
	"coffee-order/internal/notify"
	"coffee-order/internal/shared/config"
	"coffee-order/internal/shared/logger"
	"coffee-order/internal/shared/mqtt"
)

// Run wires the order service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, portOverride int) error {
	log := logger.New("order-service")
	defer log.Sync()

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}
	if portOverride > 0 {
		cfg.HTTP.Port = portOverride
	}

	// messaging client over the paho transport; endpoint problems fail here
	transport, err := mqtt.NewPahoTransport(
		cfg.Broker.Endpoint,
		cfg.Broker.Username,
		cfg.Broker.Password,
		cfg.Broker.ClientIDPrefix+"-order-"+uuid.NewString(),
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
	client.OnStateChange(func(state mqtt.State) {
		log.Info(ctx, "broker_state_changed", "Broker connection state changed",
			map[string]any{"state": string(state)})
	})
	client.Start()
	defer client.Stop()

	dispatcher := notify.NewDispatcher(client, cfg.Broker.QueueSize, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	store := memory.NewOrderStore()
	svc := service.New(store, dispatcher, log)
	handler := service.NewOrderHTTPHandler(svc, log)

	router := mux.NewRouter()
	handler.Register(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           cors.AllowAll().Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Order service started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "broker": cfg.Broker.Endpoint})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error(ctx, "http_shutdown_failed", "HTTP server shutdown failed", err)
		}
		log.Info(ctx, "graceful_shutdown", "Order service stopped", nil)
		return nil
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "http_server_failed", "HTTP server terminated", err)
		}
		return err
	}
}
