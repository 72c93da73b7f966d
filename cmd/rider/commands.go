package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rider-booking/internal/booking"
	"rider-booking/internal/fares"
)

// errQuit ends the prompt loop.
var errQuit = errors.New("quit")

// controller is the part of booking.Session the prompt drives.
type controller interface {
	Focus(f booking.Field) error
	Edit(f booking.Field, text string) error
	ChooseSuggestion(f booking.Field, i int) error
	RequestQuote() error
	ConfirmVehicle(class fares.VehicleClass) error
	SubmitRide() error
	ReopenLocations() error
	CancelConfirm() error
	CancelSearch() error
	Reset() error
	DismissNotice() error
	Snapshot() (booking.Snapshot, error)
}

const usage = `commands:
  pickup <text>        edit the pickup location
  dest <text>          edit the destination
  focus pickup|dest    switch the suggestion list
  choose <n>           use suggestion n for the active field
  quote                get fares for the route
  pick <class>         choose a vehicle class
  submit               request the ride
  back                 go back one step
  cancel               stop searching for a driver
  reset                start over
  ok                   dismiss the current notice
  status               show the current panel
  quit                 exit`

// execute runs one prompt line against c.
func execute(c controller, line string, out io.Writer) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "pickup":
		return c.Edit(booking.FieldPickup, arg)
	case "dest", "destination":
		return c.Edit(booking.FieldDestination, arg)
	case "focus":
		f, ok := booking.ParseField(arg)
		if !ok {
			return fmt.Errorf("focus: want pickup or dest, got %q", arg)
		}
		return c.Focus(f)
	case "choose":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf("choose: want a suggestion number, got %q", arg)
		}
		snap, err := c.Snapshot()
		if err != nil {
			return err
		}
		if snap.ActiveField == booking.FieldNone {
			return errors.New("choose: type a pickup or destination first")
		}
		return c.ChooseSuggestion(snap.ActiveField, n-1)
	case "quote":
		return c.RequestQuote()
	case "pick":
		if arg == "" {
			return errors.New("pick: want a vehicle class")
		}
		return c.ConfirmVehicle(fares.VehicleClass(strings.ToLower(arg)))
	case "submit":
		return c.SubmitRide()
	case "back":
		snap, err := c.Snapshot()
		if err != nil {
			return err
		}
		switch snap.Phase {
		case booking.PhaseVehicleSelection:
			return c.ReopenLocations()
		case booking.PhaseConfirmationPending:
			return c.CancelConfirm()
		case booking.PhaseDriverSearching:
			return c.CancelSearch()
		}
		return booking.ErrInvalidPhase
	case "cancel":
		return c.CancelSearch()
	case "reset":
		return c.Reset()
	case "ok":
		return c.DismissNotice()
	case "status":
		snap, err := c.Snapshot()
		if err != nil {
			return err
		}
		render(out, snap)
		return nil
	case "help", "?":
		fmt.Fprintln(out, usage)
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

// render prints the one visible panel.
func render(w io.Writer, s booking.Snapshot) {
	if s.Notice != nil {
		fmt.Fprintf(w, "! %s (type ok)\n", s.Notice.Message)
	}

	switch s.Panel {
	case booking.PanelLocationEntry:
		fmt.Fprintf(w, "[where to?] pickup: %q  destination: %q\n", s.Pickup, s.Destination)
		if s.Phase == booking.PhaseQuoteRequested {
			fmt.Fprintln(w, "  fetching fares...")
		}
		for i, sg := range s.Suggestions() {
			fmt.Fprintf(w, "  %d. %s  (%s)\n", i+1, sg.Label, sg.Address)
		}
	case booking.PanelVehicleSelection:
		fmt.Fprintf(w, "[choose a ride] %s -> %s\n", s.Pickup, s.Destination)
		for _, c := range s.Quote.Classes() {
			est := s.Quote[c]
			fmt.Fprintf(w, "  %-6s ₹%-6.0f %d min away\n", c, est.Price, est.ETA)
		}
	case booking.PanelConfirm:
		est := s.Quote[s.Selection]
		fmt.Fprintf(w, "[confirm] %s from %s to %s for ₹%.0f\n", s.Selection, s.Pickup, s.Destination, est.Price)
		if s.Phase == booking.PhaseSubmittingRide {
			fmt.Fprintln(w, "  requesting...")
		}
	case booking.PanelDriverSearch:
		fmt.Fprintf(w, "[looking for a driver] %s\n", s.Selection)
	case booking.PanelWaitingForDriver:
		renderRide(w, "[driver on the way]", s)
	case booking.PanelNone:
		renderRide(w, "[trip started]", s)
	}
}

func renderRide(w io.Writer, title string, s booking.Snapshot) {
	fmt.Fprintln(w, title)
	r := s.Ride
	if r == nil {
		return
	}
	if d := r.Driver; d != nil {
		fmt.Fprintf(w, "  %s (%.1f★)  %s %s %s\n", d.Name, d.Rating, d.Vehicle.Color, d.Vehicle.Class, d.Vehicle.Plate)
	}
	if r.OTP != "" {
		fmt.Fprintf(w, "  OTP: %s\n", r.OTP)
	}
	fmt.Fprintf(w, "  %s -> %s  ₹%.0f\n", r.Pickup, r.Destination, r.Fare)
}
