package billing

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name   string
		from   Status
		to     Status
		effect RoomEffect
	}{
		{name: "pending to confirmed occupies room", from: StatusPending, to: StatusConfirmed, effect: RoomEffectOccupy},
		{name: "pending to pending is a no-op", from: StatusPending, to: StatusPending, effect: RoomEffectNone},
		{name: "confirmed to completed releases room", from: StatusConfirmed, to: StatusCompleted, effect: RoomEffectRelease},
		{name: "pending to cancelled releases room", from: StatusPending, to: StatusCancelled, effect: RoomEffectRelease},
		{name: "confirmed to cancelled releases room", from: StatusConfirmed, to: StatusCancelled, effect: RoomEffectRelease},
		{name: "cancelled to cancelled is a no-op", from: StatusCancelled, to: StatusCancelled, effect: RoomEffectNone},
		{name: "completed to completed is a no-op", from: StatusCompleted, to: StatusCompleted, effect: RoomEffectNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			effect, err := Transition(tc.from, tc.to)
			if err != nil {
				t.Fatalf("Transition(%s, %s): %v", tc.from, tc.to, err)
			}
			if effect != tc.effect {
				t.Fatalf("Transition(%s, %s) effect = %v, want %v", tc.from, tc.to, effect, tc.effect)
			}
		})
	}
}

func TestTransitionRejected(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusConfirmed, StatusConfirmed},
		{StatusCompleted, StatusConfirmed},
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
		{StatusCancelled, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			effect, err := Transition(tc.from, tc.to)
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("Transition(%s, %s) err = %v, want InvalidTransitionError", tc.from, tc.to, err)
			}
			if ite.From != tc.from || ite.To != tc.to {
				t.Fatalf("error carries %s->%s, want %s->%s", ite.From, ite.To, tc.from, tc.to)
			}
			if effect != RoomEffectNone {
				t.Fatalf("rejected transition must have no room effect, got %v", effect)
			}
		})
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	if _, err := Transition(Status("Parked"), StatusConfirmed); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown from-status: err = %v, want ErrInvalidInput", err)
	}
	if _, err := Transition(StatusPending, Status("")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty to-status: err = %v, want ErrInvalidInput", err)
	}
}

func TestEnumValidators(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("Archived") {
		t.Fatal("ValidStatus accepted an unknown status")
	}
	for _, s := range []RoomState{RoomAvailable, RoomOccupied, RoomMaintenance} {
		if !ValidRoomState(s) {
			t.Fatalf("ValidRoomState(%s) = false", s)
		}
	}
	if ValidRoomState("Cleaning") {
		t.Fatal("ValidRoomState accepted an unknown state")
	}
	for _, rt := range []RoomType{RoomTypeIndividual, RoomTypeDouble, RoomTypeSuite, RoomTypeFamily} {
		if !ValidRoomType(rt) {
			t.Fatalf("ValidRoomType(%s) = false", rt)
		}
	}
	if ValidRoomType("Penthouse") {
		t.Fatal("ValidRoomType accepted an unknown type")
	}
}

func TestTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusConfirmed.Terminal() {
		t.Fatal("pending/confirmed must not be terminal")
	}
	if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() {
		t.Fatal("cancelled/completed must be terminal")
	}
}
