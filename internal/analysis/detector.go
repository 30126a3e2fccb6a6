package analysis

// Detector is a named scorer with its own result limit. Names are what
// users type: "arbitrage", "livearb", "kelly", "edges", "value", "steam",
// "sharp".
type Detector struct {
	Name   string
	Scorer Scorer
	TopK   int
}

// DefaultDetectors returns every detector preset with its stock thresholds.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: "arbitrage", Scorer: NewArbitrageScorer(DefaultArbitrageConfig()), TopK: 5},
		{Name: "livearb", Scorer: NewArbitrageScorer(LiveArbitrageConfig()), TopK: 5},
		{Name: "kelly", Scorer: NewEdgeScorer(KellyConfig()), TopK: 5},
		{Name: "edges", Scorer: NewEdgeScorer(EdgesConfig()), TopK: 5},
		{Name: "value", Scorer: NewEdgeScorer(ValueConfig()), TopK: 3},
		{Name: "steam", Scorer: NewSteamScorer(DefaultSteamConfig()), TopK: 5},
		{Name: "sharp", Scorer: NewSharpScorer(DefaultSharpConfig()), TopK: 3},
	}
}

// FindDetector returns the detector called name.
func FindDetector(detectors []Detector, name string) (Detector, bool) {
	for _, d := range detectors {
		if d.Name == name {
			return d, true
		}
	}
	return Detector{}, false
}
