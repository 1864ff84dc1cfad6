// Package types contains common types used across the application
package types

import (
	"encoding/json"
	"strings"
)

// RiskLevel is the triage band assigned to a symptom description.
type RiskLevel string

// Risk bands, lowest to highest.
const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel maps free-form label text to a RiskLevel.
// Unknown or empty labels resolve to LOW.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return RiskHigh
	case "MEDIUM", "MODERATE":
		return RiskMedium
	default:
		return RiskLow
	}
}

// Valid reports whether the level is one of the three known bands.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Method identifies which pipeline stage produced a decision.
type Method string

// Decision methods in pipeline order.
const (
	MethodNone       Method = "none"
	MethodRuleBased  Method = "rule-based"
	MethodSimilarity Method = "similarity"
	MethodClassifier Method = "fallback-classifier"
)

// Evidence is the tagged payload explaining a decision. Exactly one of the
// concrete variants below is carried per decision.
type Evidence interface {
	// Kind returns the discriminator used in the JSON encoding.
	Kind() string
}

// RuleEvidence carries the matched rule labels and the accumulated score.
type RuleEvidence struct {
	Labels []string `json:"labels"`
	Score  int      `json:"score"`
}

// Kind implements Evidence.
func (RuleEvidence) Kind() string { return "rules" }

// SimilarityEvidence carries the nearest exemplar and its cosine similarity.
type SimilarityEvidence struct {
	ReferenceText string  `json:"reference_text"`
	Similarity    float64 `json:"similarity"`
}

// Kind implements Evidence.
func (SimilarityEvidence) Kind() string { return "similarity" }

// ClassifierEvidence carries the zero-shot classifier output. Raw preserves
// the classifier's own rendering of its distribution, or an availability
// marker when the classifier could not be reached.
type ClassifierEvidence struct {
	Label      RiskLevel `json:"label"`
	Confidence float64   `json:"confidence"`
	Raw        string    `json:"raw,omitempty"`
}

// Kind implements Evidence.
func (ClassifierEvidence) Kind() string { return "classifier" }

// Decision is the sole output of the triage pipeline. It is created per
// request and discarded after the response is written.
type Decision struct {
	Risk           RiskLevel
	Method         Method
	Evidence       Evidence
	Paraphrased    bool
	NormalizedText string
	Advice         string
	Explanation    string
}

// decisionJSON mirrors Decision with the evidence behind a kind
// discriminator so clients never have to guess the payload shape.
type decisionJSON struct {
	Risk           RiskLevel     `json:"risk"`
	Method         Method        `json:"method"`
	Evidence       *evidenceJSON `json:"evidence,omitempty"`
	Paraphrased    bool          `json:"paraphrased,omitempty"`
	NormalizedText string        `json:"normalized_text,omitempty"`
	Advice         string        `json:"advice,omitempty"`
	Explanation    string        `json:"explanation,omitempty"`
}

type evidenceJSON struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the tagged evidence variant alongside the decision.
func (d Decision) MarshalJSON() ([]byte, error) {
	out := decisionJSON{
		Risk:           d.Risk,
		Method:         d.Method,
		Paraphrased:    d.Paraphrased,
		NormalizedText: d.NormalizedText,
		Advice:         d.Advice,
		Explanation:    d.Explanation,
	}
	if d.Evidence != nil {
		payload, err := json.Marshal(d.Evidence)
		if err != nil {
			return nil, err
		}
		out.Evidence = &evidenceJSON{Kind: d.Evidence.Kind(), Payload: payload}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the evidence payload back into its tagged variant.
// Unknown kinds leave Evidence nil rather than failing the whole decision.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var in decisionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Risk = in.Risk
	d.Method = in.Method
	d.Paraphrased = in.Paraphrased
	d.NormalizedText = in.NormalizedText
	d.Advice = in.Advice
	d.Explanation = in.Explanation
	d.Evidence = nil
	if in.Evidence == nil {
		return nil
	}
	switch in.Evidence.Kind {
	case "rules":
		var ev RuleEvidence
		if err := json.Unmarshal(in.Evidence.Payload, &ev); err != nil {
			return err
		}
		d.Evidence = ev
	case "similarity":
		var ev SimilarityEvidence
		if err := json.Unmarshal(in.Evidence.Payload, &ev); err != nil {
			return err
		}
		d.Evidence = ev
	case "classifier":
		var ev ClassifierEvidence
		if err := json.Unmarshal(in.Evidence.Payload, &ev); err != nil {
			return err
		}
		d.Evidence = ev
	}
	return nil
}

// Advice returns the guidance text shown alongside a risk band.
func Advice(risk RiskLevel) string {
	switch risk {
	case RiskHigh:
		return "Some symptoms you described are considered red-flag signs. " +
			"Please contact your GP or call NHS 111 this week."
	case RiskMedium:
		return "Your symptoms may need a GP check-up. " +
			"Please seek medical advice if they persist or change."
	default:
		return "Your symptoms are less likely to be serious, but contact your GP or NHS 111 if you're unsure."
	}
}
