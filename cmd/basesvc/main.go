package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/amankwa/attendance-services/configs"
	"github.com/amankwa/attendance-services/internal/basesvc/broker"
	"github.com/amankwa/attendance-services/internal/basesvc/correlator"
	"github.com/amankwa/attendance-services/internal/basesvc/device"
	handlers "github.com/amankwa/attendance-services/internal/basesvc/handlers"
	"github.com/amankwa/attendance-services/internal/basesvc/poller"
	"github.com/amankwa/attendance-services/internal/basesvc/session"
	"github.com/amankwa/attendance-services/internal/basesvc/storeapi"
	natscli "github.com/amankwa/attendance-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "base"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// record store client
	store := storeapi.NewClient(config.EnvOr("STORE_URL", "http://localhost:8081"))

	// Connect to NATS
	n, err := natscli.Connect(SERVICE_NAME + " service")
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// event publisher for the stream gateway
	events := broker.NewBroker(n.Conn)

	// command correlation and device bridge
	corr := correlator.New(events, config.EnvDuration("CMD_TIMEOUT", 4*time.Second))

	bridge := device.NewBridge(device.Config{
		Host:     config.EnvOr("MQTT_HOST", "127.0.0.1"),
		Port:     config.EnvInt("MQTT_PORT", 1883),
		TLS:      config.EnvBool("MQTT_TLS", false),
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
	}, corr, events)
	defer bridge.Disconnect()

	// a broker outage is not fatal; the operator sees the device-status
	// event and capture stays unavailable until the client reconnects
	if err := bridge.Connect(); err != nil {
		log.Errorf("device broker connect failed: %v", err)
	}

	// session state and the live log feed
	logs := poller.New(store, events, config.EnvDuration("POLL_INTERVAL", 4*time.Second))
	controller := session.NewController(store, logs, events)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := controller.Refresh(ctx); err != nil {
		log.Warnf("initial session refresh failed: %v", err)
	}
	cancel()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(controller, bridge, store)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("BASE_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	logs.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
