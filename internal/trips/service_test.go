package trips

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"rider-booking/internal/fares"
	"rider-booking/internal/maps"
	"rider-booking/internal/rides"
	"rider-booking/pkg/jwt"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	rides []rides.Ride
	rider []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, riderID string, r rides.Ride) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rides = append(d.rides, r)
	d.rider = append(d.rider, riderID)
	return nil
}

func newTestService() *Service {
	return NewService(maps.NewGazetteer(maps.DefaultPlaces), DefaultRates)
}

func TestFare(t *testing.T) {
	svc := newTestService()
	q, err := svc.Fare(context.Background(), "Majestic", "Koramangala")
	if err != nil {
		t.Fatalf("Fare: %v", err)
	}
	if len(q) != len(DefaultRates) {
		t.Fatalf("quote = %v", q)
	}
	classes := q.Classes()
	if classes[0] != "bike" || classes[len(classes)-1] != "car" {
		t.Fatalf("classes by price = %v", classes)
	}
	if q["bike"].ETA != DefaultRates["bike"].PickupETA {
		t.Errorf("bike eta = %d", q["bike"].ETA)
	}

	if _, err := svc.Fare(context.Background(), "Majestic", "Narnia"); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("unknown destination err = %v, want ErrNoRoute", err)
	}
	if _, err := svc.Fare(context.Background(), "", "Majestic"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("empty pickup err = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateAssignStart(t *testing.T) {
	svc := newTestService()
	d := &recordingDispatcher{}
	svc.SetDispatcher(d)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", rides.CreateRequest{Pickup: "Majestic", Destination: "Koramangala", VehicleType: "boat"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("unknown class err = %v", err)
	}

	ride, err := svc.Create(ctx, "u1", rides.CreateRequest{Pickup: " Majestic ", Destination: "Koramangala", VehicleType: "bike"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ride.Status != rides.StatusPending || ride.Pickup != "Majestic" || len(ride.OTP) != 4 || ride.Fare <= 0 {
		t.Fatalf("ride = %+v", ride)
	}
	if len(d.rides) != 1 || d.rides[0].ID != ride.ID || d.rider[0] != "u1" {
		t.Fatalf("dispatched = %+v %v", d.rides, d.rider)
	}

	if _, err := svc.Start(ctx, ride.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start before assign = %v", err)
	}
	assigned, err := svc.Assign(ctx, ride.ID, rides.Driver{ID: "d1", Name: "Ravi"})
	if err != nil || assigned.Status != rides.StatusAccepted || assigned.Driver.ID != "d1" {
		t.Fatalf("Assign = %+v, %v", assigned, err)
	}
	started, err := svc.Start(ctx, ride.ID)
	if err != nil || started.Status != rides.StatusOngoing {
		t.Fatalf("Start = %+v, %v", started, err)
	}
	trip, _ := svc.GetTrip(ctx, ride.ID)
	if trip.RiderID != "u1" || trip.AssignedAt == nil || trip.StartedAt == nil {
		t.Fatalf("trip = %+v", trip)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v", err)
	}
}

func TestFareHandler(t *testing.T) {
	signer, _ := jwt.NewSigner("test-secret")
	tok, _ := signer.Generate("u1", "", "rider")
	srv := httptest.NewServer(signer.OptionalAuth(NewHandler(newTestService()).Routes()))
	defer srv.Close()

	cases := []struct {
		pickup, destination string
		code                int
	}{
		{"Majestic", "Hebbal", http.StatusOK},
		{"Majestic", "Narnia", http.StatusUnprocessableEntity},
		{"", "Hebbal", http.StatusBadRequest},
	}
	for _, tc := range cases {
		u := srv.URL + "/get-fare?" + url.Values{"pickup": {tc.pickup}, "destination": {tc.destination}}.Encode()
		req, _ := http.NewRequest(http.MethodGet, u, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tc.code {
			resp.Body.Close()
			t.Fatalf("%s -> %s: status %d, want %d", tc.pickup, tc.destination, resp.StatusCode, tc.code)
		}
		if tc.code == http.StatusOK {
			var q fares.Quote
			if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
				t.Fatal(err)
			}
			if !q.Has("car") || !q.Has("bike") || !q.Has("auto") {
				t.Fatalf("quote = %v", q)
			}
		}
		resp.Body.Close()
	}
}
