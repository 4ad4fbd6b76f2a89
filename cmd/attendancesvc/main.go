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
	"github.com/presensia/presensi-services/internal/attendancesvc/broker"
	svcconfig "github.com/presensia/presensi-services/internal/attendancesvc/config"
	"github.com/presensia/presensi-services/internal/attendancesvc/db"
	"github.com/presensia/presensi-services/internal/attendancesvc/embedding"
	"github.com/presensia/presensi-services/internal/attendancesvc/handlers"
	"github.com/presensia/presensi-services/internal/attendancesvc/service"
	"github.com/presensia/presensi-services/internal/attendancesvc/store"
	"github.com/presensia/presensi-services/internal/comm"
	"github.com/presensia/presensi-services/internal/nats"
)

const SERVICE_NAME = "attendance"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()

	// pg connection
	dbpool, err := db.Connect(context.Background())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbpool.Close()
	log.Printf("pg connection established successfully")

	// mongo holds the employee photo bucket
	mongoDb, mongoCancel, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoCancel()
	log.Printf("mongo connection established successfully")

	employeeStore := store.NewEmployeeStore(dbpool)
	attendanceStore := store.NewAttendanceStore(dbpool)
	photoStore, err := store.NewPhotoStore(mongoDb)
	if err != nil {
		log.Fatalf("Failed to open photo bucket: %v", err)
	}

	embedder := embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingToken)
	if cfg.VerifyFace && cfg.EmbeddingURL == "" {
		log.Fatal("VERIFY_FACE is on but EMBEDDING_URL is not set")
	}

	attendanceService := service.NewAttendanceService(
		employeeStore, attendanceStore, photoStore, embedder,
		cfg.SimilarityThreshold, cfg.VerifyFace)
	employeeService := service.NewEmployeeService(employeeStore, photoStore)

	// tag relay from the bridge is optional
	var tapSource handlers.TapSource
	n, err := nats.Connect(SERVICE_NAME)
	if err != nil {
		log.Warnf("NATS unavailable, /v1/taps/latest will stay empty: %v", err)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn, cfg.Freshness)
		sub, err := b.Subscribe(comm.TagTopic)
		if err != nil {
			log.Errorf("Error: unable to subscribe to queue %v", err)
			os.Exit(0)
		}
		defer sub.Unsubscribe()
		tapSource = b
	}

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
	h := handlers.NewHandler(attendanceService, employeeService, tapSource)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("ATTENDANCE_SERVICE_PORT"),
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
