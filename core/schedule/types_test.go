package schedule

import "testing"

func TestParseRef(t *testing.T) {
	cases := []struct {
		in         string
		room, slot string
		ok         bool
	}{
		{"A-1", "a", "1", true},
		{"ballroom-mon-am", "ballroom", "mon-am", true},
		{"a-", "", "", false},
		{"-1", "", "", false},
		{"a1", "", "", false},
	}
	for _, c := range cases {
		room, slot, ok := ParseRef(c.in)
		if ok != c.ok || room != c.room || slot != c.slot {
			t.Errorf("ParseRef(%q) = %q %q %v", c.in, room, slot, ok)
		}
	}
}

func TestSnapshotTrackView(t *testing.T) {
	snap := Empty()
	snap.Tracks = []string{"nova"}
	snap.Slots = map[string][]string{"a": {"2", "1"}}
	snap.Scheduled = map[string]map[string]string{"a": {"1": "nova", "2": "nova"}}
	snap.Colors["nova"] = "red"
	snap.Next["nova"] = []string{"x"}

	tr, ok := snap.Track("NOVA")
	if !ok {
		t.Fatalf("track not found")
	}
	if tr.Color != "red" || len(tr.Next) != 1 || len(tr.Bookings) != 2 {
		t.Fatalf("unexpected view %#v", tr)
	}
	if tr.Bookings[0].Slot != "2" {
		t.Fatalf("bookings should follow slot order, got %#v", tr.Bookings)
	}
	if _, ok := snap.Track("ghost"); ok {
		t.Fatalf("unexpected track")
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Empty()
	a.Next["t"] = []string{"1"}
	a.Additional["r"] = map[string]string{"s": "v"}
	b := a.Clone()
	b.Next["t"][0] = "changed"
	b.Additional["r"]["s"] = "changed"
	if a.Next["t"][0] != "1" || a.Additional["r"]["s"] != "v" {
		t.Fatalf("clone shares state")
	}
}
