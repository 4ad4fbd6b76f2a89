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
	log "github.com/sirupsen/logrus"

	config "github.com/presensia/presensi-services/configs"
	bridgeconfig "github.com/presensia/presensi-services/internal/bridgesvc/config"
	"github.com/presensia/presensi-services/internal/nats"

	"github.com/presensia/presensi-services/internal/bridgesvc/broker"
	"github.com/presensia/presensi-services/internal/bridgesvc/fanout"
	"github.com/presensia/presensi-services/internal/bridgesvc/reader"
	"github.com/presensia/presensi-services/internal/bridgesvc/routes"
)

const SERVICE_NAME = "bridge"

func init() {
	instanceId := "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := bridgeconfig.Load()

	// event fanout shared between the serial goroutine and request handlers
	hub := fanout.NewHub()
	slot := fanout.NewLatestSlot(cfg.Freshness)
	sinks := []reader.Sink{hub, slot}

	// NATS relay is optional, the bridge keeps working without it
	n, err := nats.Connect(SERVICE_NAME)
	if err != nil {
		log.Warnf("NATS unavailable, tag events will not be relayed: %v", err)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		sinks = append(sinks, broker.NewBroker(n.Conn))
	}

	// the serial reader owns the device handle for the life of the process
	ctx, cancel := context.WithCancel(context.Background())
	rdr := reader.New(cfg.SerialPort, cfg.BaudRate, cfg.Backoff, cfg.Grace, sinks...)
	go rdr.Run(ctx)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Initialize routes
	routes.SetRoutes(r, hub, slot)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("BRIDGE_SERVICE_PORT"),
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

	cancel() // closes the serial handle and stops the reader

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
