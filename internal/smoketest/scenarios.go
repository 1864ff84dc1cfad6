package smoketest

import "github.com/symptomly/triage/internal/domain/types"

// DefaultRoutes are the public paths that must answer 200.
func DefaultRoutes() []string {
	return []string{
		"/",
		"/healthz",
		"/stats",
		"/dashboard",
		"/api-docs",
		"/openapi.yaml",
	}
}

// DefaultScenarios returns the canonical /check expectation table. The
// rule-stage rows hold on any deployment; rows marked NeedsAI depend on the
// embedding and chat services being reachable from the service under test.
func DefaultScenarios() []Scenario {
	ruleBased := []types.Method{types.MethodRuleBased}
	aiStages := []types.Method{types.MethodSimilarity, types.MethodClassifier}
	anyRisk := []types.RiskLevel{types.RiskLow, types.RiskMedium, types.RiskHigh}

	return []Scenario{
		{
			Name:        "empty input is gated",
			Symptoms:    "",
			WantMethods: []types.Method{types.MethodNone},
			WantRisks:   []types.RiskLevel{types.RiskLow},
		},
		{
			Name:        "single short word is gated",
			Symptoms:    "ok",
			WantMethods: []types.Method{types.MethodNone},
			WantRisks:   []types.RiskLevel{types.RiskLow},
		},
		{
			Name:        "bloody discharge is a red flag",
			Symptoms:    "bloody nipple discharge today",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskHigh},
		},
		{
			Name:        "armpit lump is a red flag",
			Symptoms:    "new lump in my armpit",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskHigh},
		},
		{
			Name:        "skin dimpling is a red flag",
			Symptoms:    "breast skin dimpling and redness",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskHigh},
		},
		{
			Name:        "nipple inversion without recency",
			Symptoms:    "my nipple looks pulled in / inverted",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskMedium},
		},
		{
			Name:        "size and shape change",
			Symptoms:    "change in size and shape of my breast",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskMedium},
		},
		{
			Name:        "persistent pain",
			Symptoms:    "persistent breast pain for two weeks",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskMedium},
		},
		{
			Name:        "mild tenderness stays low",
			Symptoms:    "mild tenderness",
			WantMethods: ruleBased,
			WantRisks:   []types.RiskLevel{types.RiskLow},
		},
		{
			Name:          "paraphrased texture change reaches the similarity stage",
			Symptoms:      "the surface of my chest resembles citrus rind",
			WantMethods:   aiStages,
			WantRisks:     anyRisk,
			MinSimilarity: 0.6,
			NeedsAI:       true,
		},
		{
			Name:        "vague description falls through to the classifier",
			Symptoms:    "I feel a bit off lately",
			WantMethods: []types.Method{types.MethodClassifier},
			WantRisks:   anyRisk,
		},
	}
}
