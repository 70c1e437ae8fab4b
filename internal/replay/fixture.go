package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/episode"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a scenario fixture: a scripted
// sequence of positions driven through the episode transition.
type Fixture struct {
	Description     string                  `json:"description"`
	SeedWeight      float64                 `json:"seed_weight"`
	Config          FixtureConfig           `json:"config"`
	Ticks           []FixtureTick           `json:"ticks"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig overrides the controller defaults. Zero values keep the default.
type FixtureConfig struct {
	TimeStep     float64 `json:"time_step"`
	GoalX        float64 `json:"goal_x"`
	RedoTarget   int     `json:"redo_target"`
	LearningRate float64 `json:"learning_rate"`
	MaxWeight    float64 `json:"max_weight"`
}

// FixtureTick is the world as one tick observes it.
type FixtureTick struct {
	TrayX    float64 `json:"tray_x"`
	PayloadX float64 `json:"payload_x"`
}

// FixtureExpectedResult captures the expected transition per tick.
type FixtureExpectedResult struct {
	Outcome   string  `json:"outcome"`
	Attempt   int     `json:"attempt"`
	RedoCount int     `json:"redo_count"`
	Phase     string  `json:"phase"`
	Record    bool    `json:"record"`
	Weight    float64 `json:"weight"`
}

// FixtureResult is the actual transition for one tick.
type FixtureResult struct {
	Tick   int
	Result episode.TickResult
	State  state.ControlState
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToEpisodeConfig applies the fixture overrides to the controller defaults.
func (fc *FixtureConfig) ToEpisodeConfig() episode.Config {
	cfg := episode.DefaultConfig()
	if fc.TimeStep > 0 {
		cfg.TimeStep = fc.TimeStep
	}
	if fc.GoalX > 0 {
		cfg.GoalX = fc.GoalX
	}
	if fc.RedoTarget > 0 {
		cfg.RedoTarget = fc.RedoTarget
	}
	if fc.LearningRate > 0 {
		cfg.Update.LearningRate = fc.LearningRate
	}
	if fc.MaxWeight > 0 {
		cfg.Gate.MaxWeight = fc.MaxWeight
	}
	return cfg
}

// #endregion fixture-loader

// #region fixture-run

// Run drives every tick of the fixture through episode.Step. Tick i observes
// simulated time i*TimeStep.
func (f *Fixture) Run() []FixtureResult {
	cfg := f.Config.ToEpisodeConfig()
	cs := state.NewControlState(f.SeedWeight)
	results := make([]FixtureResult, 0, len(f.Ticks))

	for i, tick := range f.Ticks {
		obs := episode.Observation{
			Time:     float64(i) * cfg.TimeStep,
			TrayX:    tick.TrayX,
			PayloadX: tick.PayloadX,
		}
		var res episode.TickResult
		cs, res = episode.Step(cs, obs, cfg)
		results = append(results, FixtureResult{Tick: i, Result: res, State: cs})
	}
	return results
}

// Check compares one actual transition against its expectation and returns a
// description of the first difference, or "".
func (e FixtureExpectedResult) Check(got FixtureResult, tol float64) string {
	switch {
	case string(got.Result.Outcome) != e.Outcome:
		return fmt.Sprintf("outcome=%s, want %s", got.Result.Outcome, e.Outcome)
	case got.State.Attempt != e.Attempt:
		return fmt.Sprintf("attempt=%d, want %d", got.State.Attempt, e.Attempt)
	case got.State.RedoCount != e.RedoCount:
		return fmt.Sprintf("redo_count=%d, want %d", got.State.RedoCount, e.RedoCount)
	case string(got.State.Phase) != e.Phase:
		return fmt.Sprintf("phase=%s, want %s", got.State.Phase, e.Phase)
	case (got.Result.Record != nil) != e.Record:
		return fmt.Sprintf("record=%v, want %v", got.Result.Record != nil, e.Record)
	case math.Abs(got.State.Weight-e.Weight) > tol:
		return fmt.Sprintf("weight=%v, want %v", got.State.Weight, e.Weight)
	}
	return ""
}

// #endregion fixture-run
