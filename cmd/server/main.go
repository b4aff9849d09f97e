package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dynamicaqs/crm-engine/internal/delivery"
	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/eventbus"
	"github.com/dynamicaqs/crm-engine/internal/feed"
	"github.com/dynamicaqs/crm-engine/internal/history"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/preference"
	"github.com/dynamicaqs/crm-engine/internal/server"
	"github.com/dynamicaqs/crm-engine/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notification store: SQLite when DATABASE_URL is set, in-memory
	// otherwise.
	var store notification.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		sqlStore := notification.NewSQLiteStore(db)
		if err := sqlStore.CreateTable(ctx); err != nil {
			log.Fatalf("creating schema: %v", err)
		}
		store = sqlStore
		log.Printf("store: sqlite (%s)", dsn)
	} else {
		store = notification.NewMemoryStore()
		log.Printf("store: in-memory")
	}

	if os.Getenv("SEED_DEMO") == "1" {
		if err := notification.SeedDemoData(ctx, store); err != nil {
			log.Printf("seed: %v", err)
		}
	}

	// Escalation rules: file when configured, built-ins otherwise.
	rulesPath := os.Getenv("RULES_PATH")
	rules := escalation.DefaultRules()
	if rulesPath != "" {
		loaded, err := escalation.LoadRules(rulesPath)
		if err != nil {
			log.Fatalf("loading rules: %v", err)
		}
		rules = loaded
		log.Printf("escalation: %d rules loaded from %s", len(rules), rulesPath)
	} else {
		log.Printf("escalation: using %d built-in rules", len(rules))
	}
	sched := escalation.NewScheduler(store, rules)

	prefs := preference.NewStore()
	sender := delivery.NewLogSender()
	dispatcher := delivery.NewDispatcher(sender, sender, sender)

	defaultRecipient := os.Getenv("DEFAULT_RECIPIENT")
	if defaultRecipient == "" {
		defaultRecipient = "portal-admin"
	}

	hub := feed.NewHub()

	bus := eventbus.New(256)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Subscribe("delivery", eventbus.NewDeliveryConsumer(prefs, dispatcher, defaultRecipient))
	bus.Subscribe("feed", hub)
	bus.Start(ctx)

	recorder := event.NewNotificationRecorder(store)
	recorder.SetTracker(sched)
	recorder.SetPublisher(bus)

	tickInterval := time.Minute
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tickInterval = d
		}
	}
	hist := history.NewStore()
	loop := worker.NewEscalationLoop(sched, store, dispatcher, hub, hist, tickInterval)
	go loop.Run(ctx)

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	if err := server.Run(ctx, server.Config{
		Port:      port,
		Store:     store,
		Prefs:     prefs,
		Scheduler: sched,
		Recorder:  recorder,
		Hub:       hub,
		History:   hist,
		RulesPath: rulesPath,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
