package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"tableorder-agent/config"
	"tableorder-agent/internal/api"
	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/db"
	"tableorder-agent/internal/mw"
	"tableorder-agent/internal/notification"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/store"
	"tableorder-agent/internal/view"
)

func main() {
	logger := log.New(os.Stdout, "tableorderd ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Session storage: a database, or process memory when asked for.
	var gormDB *gorm.DB
	var kv store.Store
	if db.IsMemory(&cfg.Database) {
		kv = store.NewMemoryStore()
		logger.Println("session kept in memory; push subscriptions are disabled")
	} else {
		gormDB, err = db.Init(&cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		kv = store.NewGormStore(gormDB)
		logger.Println("database initialized successfully")
	}
	sess := session.New(kv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		HTTPProxy: cfg.Backend.HTTPProxy,
	}, sess)

	if err := seedKiosk(ctx, cfg.Kiosk, sess, client); err != nil {
		logger.Printf("kiosk settings not applied: %v", err)
	}

	rt := realtime.NewManager(realtime.Options{
		URL:          cfg.Realtime.URL,
		ReconnectMin: cfg.Realtime.ReconnectMin,
		ReconnectMax: cfg.Realtime.ReconnectMax,
		Disabled:     !cfg.Realtime.Enabled,
	})
	rt.OnStatus(func(connected bool) {
		logger.Printf("realtime connected=%t", connected)
	})

	// Staff alerts need both VAPID keys and somewhere to keep subscriptions.
	var webpushOptions *webpush.Options
	var alerter view.Alerter
	if cfg.Push.Enabled() && gormDB != nil {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		alerter = pool
	} else {
		logger.Println("VAPID keys or database missing; staff push alerts are disabled")
	}

	app := view.NewApp(ctx)
	alerts := api.NewAlerts(0)
	deps := view.Deps{
		Backend:  client,
		Session:  sess,
		Realtime: rt,
		Nav:      app,
		Notify:   alerts,
		Alerts:   alerter,
		Intervals: view.Intervals{
			Kitchen:   cfg.Polling.Kitchen,
			Orders:    cfg.Polling.Orders,
			Calls:     cfg.Polling.Calls,
			Tables:    cfg.Polling.Tables,
			Dashboard: cfg.Polling.Dashboard,
			Menu:      cfg.Polling.Menu,
		},
		SessionTimeout: cfg.Session.Timeout,
		LoginCooldown:  cfg.Auth.LoginCooldown,
		PublicURL:      cfg.Server.PublicURL,
	}
	pages := api.Pages{
		Customer:  view.NewCustomerPage(deps),
		Kitchen:   view.NewKitchenPage(deps),
		Login:     view.NewLoginPage(deps),
		Dashboard: view.NewDashboardPage(deps),
		Orders:    view.NewOrdersPage(deps),
		Calls:     view.NewCallsPage(deps),
		Menus:     view.NewMenusPage(deps),
		Tables:    view.NewTablesPage(deps),
		Stores:    view.NewStoresPage(deps),
	}
	for _, p := range []view.Page{pages.Customer, pages.Kitchen, pages.Login, pages.Dashboard,
		pages.Orders, pages.Calls, pages.Menus, pages.Tables, pages.Stores} {
		app.Register(p)
	}

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go sweep(ctx, limiter)

	handler := api.NewHandler(app, pages, sess, alerts, gormDB, webpushOptions)
	router := api.NewRouter(handler, cfg.Server, limiter)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.WithCORS(router, cfg.Server.CORSOrigins),
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	start := initialRoute(cfg.Kiosk.Role)
	logger.Printf("mounting %s for role %s", start, cfg.Kiosk.Role)
	app.Navigate(start)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	app.Close()
	cancel()

	logger.Println("Agent gracefully stopped")
}

// initialRoute picks the first page for a kiosk role.
func initialRoute(role string) string {
	switch role {
	case "kitchen":
		return view.RouteKitchen
	case "admin":
		return view.RouteAdmin
	case "standby":
		return view.RouteStandby
	}
	return view.RouteMenu
}

// seedKiosk applies the configured store and table when the session has none yet.
func seedKiosk(ctx context.Context, k config.KioskConfig, sess *session.Session, client *backend.Client) error {
	if k.TableNumber != "" {
		current, err := sess.TableNumber(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			if err := sess.SetTableNumber(ctx, k.TableNumber); err != nil {
				return fmt.Errorf("table %q: %w", k.TableNumber, err)
			}
		}
	}
	if k.StoreID == "" {
		return nil
	}
	if _, err := sess.SelectedStore(ctx); !errors.Is(err, session.ErrNoStore) {
		return err
	}
	res := client.GetStore(ctx, k.StoreID)
	if !res.Success {
		// The id alone is enough for the public customer endpoints.
		log.Printf("store %s lookup failed (%s); using the id only", k.StoreID, res.Error)
		res.Data.ID = k.StoreID
	}
	return sess.SetSelectedStore(ctx, res.Data)
}

// sweep forgets idle API clients so the limiter map stays small.
func sweep(ctx context.Context, limiter *mw.IPRateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			limiter.Sweep(30 * time.Minute)
		case <-ctx.Done():
			return
		}
	}
}
