package replay

import (
	"path/filepath"
	"testing"
)

func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.json"))
	if err != nil {
		t.Fatalf("glob fixtures: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found in testdata")
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := LoadFixture(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(f.ExpectedResults) != len(f.Ticks) {
				t.Fatalf("fixture has %d ticks but %d expectations", len(f.Ticks), len(f.ExpectedResults))
			}

			results := f.Run()
			if len(results) != len(f.Ticks) {
				t.Fatalf("expected %d results, got %d", len(f.Ticks), len(results))
			}
			for i, want := range f.ExpectedResults {
				if diff := want.Check(results[i], 1e-9); diff != "" {
					t.Errorf("tick %d: %s", i, diff)
				}
			}
		})
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestToEpisodeConfig_ZeroKeepsDefaults(t *testing.T) {
	var fc FixtureConfig
	cfg := fc.ToEpisodeConfig()
	if cfg.GoalX != 699 || cfg.RedoTarget != 2 || cfg.Update.LearningRate != 0.01 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	fc = FixtureConfig{TimeStep: 0.5, RedoTarget: 3, MaxWeight: 2}
	cfg = fc.ToEpisodeConfig()
	if cfg.TimeStep != 0.5 || cfg.RedoTarget != 3 || cfg.Gate.MaxWeight != 2 {
		t.Fatalf("expected overrides applied, got %+v", cfg)
	}
}
