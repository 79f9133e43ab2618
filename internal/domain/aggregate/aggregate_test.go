package aggregate

import (
	"testing"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

func TestVertical(t *testing.T) {
	cases := []struct {
		liftID int
		want   int64
	}{
		{liftID: 1, want: 10},
		{liftID: 5, want: 50},
		{liftID: 40, want: 400},
	}
	for _, c := range cases {
		if got := Vertical(c.liftID); got != c.want {
			t.Errorf("Vertical(%d) = %d, want %d", c.liftID, got, c.want)
		}
	}
}

func TestKeys(t *testing.T) {
	if got, want := DaySkiersKey(1, 2024, 3), "resort:1:season:2024:day:3:skiers"; got != want {
		t.Errorf("DaySkiersKey = %q, want %q", got, want)
	}
	if got, want := SkierDayKey(1, 2024, 3, 42), "resort:1:season:2024:day:3:skier:42"; got != want {
		t.Errorf("SkierDayKey = %q, want %q", got, want)
	}
	if got, want := SkierVerticalKey(1, 42), "resort:1:skier:42:vertical"; got != want {
		t.Errorf("SkierVerticalKey = %q, want %q", got, want)
	}
}

func TestBatch(t *testing.T) {
	e := model.LiftRideEvent{
		ResortID: 1,
		SeasonID: 2024,
		DayID:    1,
		SkierID:  42,
		LiftRide: model.LiftRide{LiftID: 5, Time: 100},
	}

	ops := Batch(e)
	if len(ops) != 4 {
		t.Fatalf("expected 4 ops, got %d", len(ops))
	}

	if ops[0].Kind != OpSetAdd || ops[0].Key != "resort:1:season:2024:day:1:skiers" || ops[0].Member != "42" {
		t.Errorf("unexpected set add op: %+v", ops[0])
	}

	if ops[1].Kind != OpHashIncr || ops[1].Key != "resort:1:season:2024:day:1:skier:42" ||
		ops[1].Field != VerticalField || ops[1].Delta != 50 {
		t.Errorf("unexpected day vertical op: %+v", ops[1])
	}

	if ops[2].Field != "2024" || ops[2].Delta != 50 || ops[2].Key != "resort:1:skier:42:vertical" {
		t.Errorf("unexpected season vertical op: %+v", ops[2])
	}

	if ops[3].Field != AllSeasonsField || ops[3].Delta != 50 {
		t.Errorf("unexpected lifetime vertical op: %+v", ops[3])
	}
}
