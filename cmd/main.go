package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/fariasdev/mycar-sync/internal/alerts"
	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/handlers"
	"github.com/fariasdev/mycar-sync/internal/middleware"
	"github.com/fariasdev/mycar-sync/internal/models"
	"github.com/fariasdev/mycar-sync/internal/remote"
	"github.com/fariasdev/mycar-sync/internal/scheduler"
	"github.com/fariasdev/mycar-sync/internal/session"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

// noopPublisher drops notifications when no broker is configured; the sync
// engine and the HTTP alert feed keep working without one.
type noopPublisher struct{}

func (noopPublisher) Publish([]models.VehicleAlert) error { return nil }

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	store := db.NewCollections(client)

	var sess *session.Manager
	apiClient := remote.NewClient(func(ctx context.Context) (string, error) {
		return sess.Token(ctx)
	})
	sess = session.NewManager(apiClient.Login)

	engine := syncengine.NewEngine(store, apiClient)
	alertService := alerts.NewService(store)

	var publisher scheduler.AlertPublisher = noopPublisher{}
	notifier, err := alerts.NewNotifier()
	if err != nil {
		log.WithError(err).Warn("MQTT broker unavailable, alert notifications disabled")
	} else {
		defer notifier.Close()
		publisher = notifier
	}

	sched := scheduler.New(engine, alertService, publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sched.Run(ctx)

	taskHandler := handlers.NewTaskHandler(engine, store.Tasks)
	historyHandler := handlers.NewHistoryHandler(engine, store.History)
	carHandler := handlers.NewCarHandler(engine, store.Cars)
	syncHandler := handlers.NewSyncHandler(sched, alertService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/tasks", taskHandler.Tasks)
	mux.HandleFunc("/api/tasks/", taskHandler.TaskByID)
	mux.HandleFunc("/api/history", historyHandler.History)
	mux.HandleFunc("/api/history/", historyHandler.HistoryByID)
	mux.HandleFunc("/api/cars", carHandler.Cars)
	mux.HandleFunc("/api/cars/", carHandler.CarByID)
	mux.HandleFunc("/api/sync", syncHandler.Sync)
	mux.HandleFunc("/api/alerts", syncHandler.Alerts)

	handler := middleware.RequestLogger(middleware.APIKey(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("mycar-sync listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("HTTP server failed")
	}
}
