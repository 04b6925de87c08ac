package scenarios

import (
	"path/filepath"
	"testing"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenario files")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadDefaultsChannel(t *testing.T) {
	sc, err := Load("keynote.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Channel == "" {
		t.Fatalf("channel not defaulted")
	}
	if g := sc.Grid(); len(g.Rooms) == 0 {
		t.Fatalf("no rooms in grid")
	}
}
