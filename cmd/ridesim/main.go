package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rider-booking/internal/config"
	"rider-booking/internal/drivers"
	"rider-booking/internal/events"
	"rider-booking/internal/maps"
	"rider-booking/internal/matching"
	"rider-booking/internal/server"
	"rider-booking/internal/tracking"
	"rider-booking/internal/trips"
	"rider-booking/internal/users"
	"rider-booking/pkg/jwt"
	"rider-booking/pkg/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadSim()
	if err != nil {
		log.Fatal(err)
	}

	// ── 1. JWT signer ──
	signer, err := jwt.NewSigner(cfg.JWTSecret)
	if err != nil {
		log.Fatal(err)
	}

	// ── 2. Maps ──
	var mapsSvc maps.Service = maps.NewGazetteer(maps.DefaultPlaces)
	if cfg.MapsAPIKey != "" {
		g, err := maps.NewGoogleService(cfg.MapsAPIKey)
		if err != nil {
			log.Fatal(err)
		}
		mapsSvc = g
		log.Println("[maps] using Google Places and Directions")
	} else {
		log.Println("[maps] using offline gazetteer")
	}

	// ── 3. Kafka (optional) ──
	var kafkaClient *kafka.Client
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient = kafka.NewClient(cfg.KafkaBrokers)
		if err := kafkaClient.EnsureTopics(ctx,
			events.TopicRideRequested,
			events.TopicDriverAssigned,
			events.TopicTripStarted,
		); err != nil {
			log.Fatal(err)
		}
		defer kafkaClient.Close()
	}

	// ── 4. Services ──
	userSvc := users.NewService(signer)
	roster := drivers.NewService(drivers.DefaultRoster)
	tripSvc := trips.NewService(mapsSvc, trips.DefaultRates)
	wsHub := tracking.NewHub()

	// ── 5. Dispatch ──
	matcher := matching.NewMatcher(tripSvc, roster, wsHub, kafkaClient, matching.Config{
		AssignDelay: cfg.AssignDelay,
		StartDelay:  cfg.StartDelay,
	})
	matcher.Start(ctx)
	tripSvc.SetDispatcher(matcher)

	// ── 6. HTTP router ──
	r := server.NewRouter(server.Deps{
		Signer:  signer,
		Users:   userSvc,
		Drivers: roster,
		Trips:   tripSvc,
		Maps:    mapsSvc,
		Hub:     wsHub,
	})

	// ── 7. Serve until signalled ──
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("ridesim listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("ridesim: %v", err)
	}
	stop() // stop consumers and pending dispatch timers
	matcher.Wait()
}
