package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rider-booking/internal/booking"
	"rider-booking/internal/config"
	"rider-booking/internal/fares"
	"rider-booking/internal/places"
	"rider-booking/internal/push"
	"rider-booking/internal/rides"
	"rider-booking/pkg/api"
	"rider-booking/pkg/jwt"
	rredis "rider-booking/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadRider()
	if err != nil {
		log.Fatal(err)
	}
	identity, err := jwt.Identity(cfg.Token)
	if err != nil {
		log.Fatal(err)
	}

	client := api.NewClient(cfg.APIURL, api.StaticToken(cfg.Token), cfg.RequestTimeout)

	var suggester places.Suggester = places.NewClient(client)
	if cfg.Redis.Addr != "" {
		rc, err := rredis.NewClient(cfg.Redis.Addr)
		if err != nil {
			log.Printf("[places] suggestion cache disabled: %v", err)
		} else {
			defer rc.Close()
			suggester = places.NewCachedSuggester(suggester, rc, cfg.Redis.SuggestTTL)
		}
	}

	ch, err := push.Dial(ctx, cfg.PushURL, cfg.Token)
	if err != nil {
		log.Fatal(err)
	}
	defer ch.Close()

	handoff := make(chan rides.Ride, 1)
	s, err := booking.NewSession(booking.Config{
		Identity:  identity,
		Channel:   ch,
		Suggester: suggester,
		Quoter:    fares.NewClient(client),
		Submitter: rides.NewClient(client),
		OnChange:  func(snap booking.Snapshot) { render(os.Stdout, snap) },
		OnHandOff: func(r rides.Ride) { handoff <- r },
	})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	fmt.Println("type help for commands")
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.Done():
			log.Printf("[push] connection lost: %v", ch.Err())
			return
		case r := <-handoff:
			fmt.Printf("enjoy the ride (%s)\n", r.ID)
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			err := execute(s, line, os.Stdout)
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				fmt.Println("error:", err)
			}
		}
	}
}
