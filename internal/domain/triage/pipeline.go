// Package triage implements the staged symptom decision pipeline.
//
// A check walks a fixed sequence of stages, each terminal on success:
// input gate, weighted rules on the raw text, exemplar similarity on the
// raw text, a single normalize-and-retry of those two stages, then the
// zero-shot fallback classifier. Every path yields a valid decision; a
// failing external capability only disables its own stage.
package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/adapters/index"
	"github.com/symptomly/triage/internal/domain/rules"
	"github.com/symptomly/triage/internal/domain/symptom"
	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/logger"
	"github.com/symptomly/triage/pkg/metrics"
)

// Default policy values, overridable through options.
const (
	DefaultAcceptanceThreshold = 0.75
	DefaultConfidenceFloor     = 0.80
	DefaultCallTimeout         = 10 * time.Second
)

// gateAdvice is returned when the input gate rejects a description.
const gateAdvice = "Please describe your symptoms using a few words."

// unavailableMarker is carried as classifier evidence when the external
// classifier cannot be reached.
const unavailableMarker = "classifier unavailable"

// Pipeline orchestrates one check through the staged decision machine.
// It holds no per-request state; a single Pipeline serves concurrent
// requests without synchronization.
type Pipeline struct {
	engine     *rules.Engine
	thresholds rules.Thresholds
	store      index.Store
	embedder   ai.Embedder
	normalizer ai.Normalizer
	classifier ai.Classifier
	explainer  ai.Explainer

	tau             float64
	minWords        int
	minChars        int
	confidenceFloor float64
	contextKeywords []string
	callTimeout     time.Duration

	logger logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithEngine sets the rule engine.
func WithEngine(engine *rules.Engine) Option {
	return func(p *Pipeline) {
		if engine != nil {
			p.engine = engine
		}
	}
}

// WithThresholds sets the rule score to risk band mapping.
func WithThresholds(t rules.Thresholds) Option {
	return func(p *Pipeline) { p.thresholds = t }
}

// WithStore sets the exemplar index used by the similarity stage.
// Without a store the similarity stage is skipped.
func WithStore(store index.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithProvider wires every external capability from a single provider.
func WithProvider(provider ai.Provider) Option {
	return func(p *Pipeline) {
		if provider == nil {
			return
		}
		p.embedder = provider.Embedder()
		p.normalizer = provider.Normalizer()
		p.classifier = provider.Classifier()
		p.explainer = provider.Explainer()
	}
}

// WithEmbedder sets the embedder used by the similarity stage.
func WithEmbedder(e ai.Embedder) Option {
	return func(p *Pipeline) { p.embedder = e }
}

// WithNormalizer sets the paraphrasing normalizer. Without one the
// normalize-and-retry stage is skipped.
func WithNormalizer(n ai.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithClassifier sets the zero-shot fallback classifier.
func WithClassifier(c ai.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithExplainer sets the optional lay explainer. Without one a locally
// composed explanation sentence is used.
func WithExplainer(e ai.Explainer) Option {
	return func(p *Pipeline) { p.explainer = e }
}

// WithAcceptanceThreshold sets the minimum cosine similarity the
// similarity stage accepts.
func WithAcceptanceThreshold(tau float64) Option {
	return func(p *Pipeline) {
		if tau > 0 {
			p.tau = tau
		}
	}
}

// WithMinWords sets the input gate word minimum.
func WithMinWords(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.minWords = n
		}
	}
}

// WithMinChars sets the input gate character minimum.
func WithMinChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.minChars = n
		}
	}
}

// WithConfidenceFloor sets the classifier guardrail threshold.
func WithConfidenceFloor(f float64) Option {
	return func(p *Pipeline) {
		if f > 0 {
			p.confidenceFloor = f
		}
	}
}

// WithContextKeywords sets the domain-context keyword gate.
func WithContextKeywords(keywords []string) Option {
	return func(p *Pipeline) {
		if len(keywords) > 0 {
			p.contextKeywords = keywords
		}
	}
}

// WithCallTimeout bounds every external-capability call.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

// WithLogger sets the logger used by the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline with default policy and the default rule table.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:          rules.NewEngine(),
		thresholds:      rules.DefaultThresholds(),
		tau:             DefaultAcceptanceThreshold,
		minWords:        symptom.DefaultMinWords,
		minChars:        symptom.DefaultMinChars,
		confidenceFloor: DefaultConfidenceFloor,
		contextKeywords: symptom.DefaultContextKeywords(),
		callTimeout:     DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	return p
}

// Check runs one sanitized symptom description through the pipeline.
// It never fails: every input within size limits maps to a decision.
func (p *Pipeline) Check(ctx context.Context, text string) types.Decision {
	metrics.RecordCheckProcessed()

	if symptom.TooShort(text, p.minWords, p.minChars) {
		p.logger.Debug(ctx, "input gate rejected description", logger.Int("length", len(text)))
		return p.finish(ctx, types.Decision{
			Risk:   types.RiskLow,
			Method: types.MethodNone,
			Advice: gateAdvice,
		})
	}

	if d, ok := p.ruleStage(ctx, text, false, ""); ok {
		return p.finish(ctx, d)
	}
	if d, ok := p.similarityStage(ctx, text, false, ""); ok {
		return p.finish(ctx, d)
	}

	if normalized, ok := p.normalize(ctx, text); ok {
		if d, ok := p.ruleStage(ctx, normalized, true, normalized); ok {
			return p.finish(ctx, d)
		}
		if d, ok := p.similarityStage(ctx, normalized, true, normalized); ok {
			return p.finish(ctx, d)
		}
	}

	return p.finish(ctx, p.fallbackStage(ctx, text))
}

// ruleStage scores the text against the rule table. A positive score
// terminates the pipeline.
func (p *Pipeline) ruleStage(ctx context.Context, text string, paraphrased bool, normalized string) (types.Decision, bool) {
	result := p.engine.Score(text)
	if result.Score <= 0 {
		return types.Decision{}, false
	}

	risk := rules.Band(result.Score, p.thresholds)
	p.logger.Info(ctx, "rule stage matched",
		logger.Int("score", result.Score),
		logger.String("risk", string(risk)),
		logger.Any("paraphrased", paraphrased))

	d := types.Decision{
		Risk:           risk,
		Method:         types.MethodRuleBased,
		Evidence:       types.RuleEvidence{Labels: result.Labels, Score: result.Score},
		Paraphrased:    paraphrased,
		NormalizedText: normalized,
		Advice:         types.Advice(risk),
	}
	d.Explanation = p.explain(ctx, d)
	return d, true
}

// similarityStage embeds the text and looks up the nearest exemplar.
// Acceptance requires similarity at or above tau and a domain-context
// keyword in the text. Any capability failure degrades to no match.
func (p *Pipeline) similarityStage(ctx context.Context, text string, paraphrased bool, normalized string) (types.Decision, bool) {
	if p.store == nil || p.embedder == nil {
		return types.Decision{}, false
	}

	cctx, cancel := p.callCtx(ctx)
	vec, err := p.embedder.EmbedText(cctx, text)
	cancel()
	if err != nil {
		p.logger.Warn(ctx, "embedding failed, skipping similarity stage",
			logger.Int("length", len(text)), logger.Error(err))
		metrics.RecordStageError("similarity")
		return types.Decision{}, false
	}

	match, err := p.store.Nearest(ctx, vec)
	if err != nil {
		p.logger.Warn(ctx, "exemplar lookup failed, skipping similarity stage", logger.Error(err))
		metrics.RecordStageError("similarity")
		return types.Decision{}, false
	}

	if match.Similarity < p.tau || !symptom.HasContext(text, p.contextKeywords) {
		return types.Decision{}, false
	}

	p.logger.Info(ctx, "similarity stage matched",
		logger.Float64("similarity", match.Similarity),
		logger.String("risk", string(match.Exemplar.Risk)),
		logger.Any("paraphrased", paraphrased))

	d := types.Decision{
		Risk:   match.Exemplar.Risk,
		Method: types.MethodSimilarity,
		Evidence: types.SimilarityEvidence{
			ReferenceText: match.Exemplar.Text,
			Similarity:    match.Similarity,
		},
		Paraphrased:    paraphrased,
		NormalizedText: normalized,
		Advice:         types.Advice(match.Exemplar.Risk),
	}
	d.Explanation = p.explain(ctx, d)
	return d, true
}

// normalize asks for a paraphrase of the text. The retry only proceeds
// when the result differs case-insensitively from the input.
func (p *Pipeline) normalize(ctx context.Context, text string) (string, bool) {
	if p.normalizer == nil {
		return "", false
	}

	cctx, cancel := p.callCtx(ctx)
	normalized, err := p.normalizer.Normalize(cctx, text)
	cancel()
	if err != nil {
		p.logger.Warn(ctx, "normalization failed, skipping retry",
			logger.Int("length", len(text)), logger.Error(err))
		metrics.RecordStageError("normalize")
		return "", false
	}

	normalized = strings.TrimSpace(normalized)
	if normalized == "" || strings.EqualFold(normalized, text) {
		return "", false
	}
	return normalized, true
}

// fallbackStage is the guaranteed-terminal path. The guardrail forces the
// label down to LOW when the text has no domain-context keyword and the
// classifier's confidence is below the floor.
func (p *Pipeline) fallbackStage(ctx context.Context, text string) types.Decision {
	if p.classifier == nil {
		return p.unavailableDecision(ctx)
	}

	cctx, cancel := p.callCtx(ctx)
	verdict, err := p.classifier.Classify(cctx, text)
	cancel()
	if err != nil {
		p.logger.Warn(ctx, "fallback classifier failed",
			logger.Int("length", len(text)), logger.Error(err))
		metrics.RecordStageError("fallback")
		return p.unavailableDecision(ctx)
	}

	risk := verdict.Label
	if !risk.Valid() {
		risk = types.RiskLow
	}
	if !symptom.HasContext(text, p.contextKeywords) && verdict.Confidence < p.confidenceFloor {
		risk = types.RiskLow
	}

	p.logger.Info(ctx, "fallback classifier used",
		logger.String("risk", string(risk)),
		logger.Float64("confidence", verdict.Confidence))

	d := types.Decision{
		Risk:   risk,
		Method: types.MethodClassifier,
		Evidence: types.ClassifierEvidence{
			Label:      risk,
			Confidence: verdict.Confidence,
			Raw:        verdict.Raw,
		},
		Advice: types.Advice(risk),
	}
	d.Explanation = p.explain(ctx, d)
	return d
}

// unavailableDecision is the LOW terminal used when the classifier
// cannot serve.
func (p *Pipeline) unavailableDecision(ctx context.Context) types.Decision {
	d := types.Decision{
		Risk:     types.RiskLow,
		Method:   types.MethodClassifier,
		Evidence: types.ClassifierEvidence{Label: types.RiskLow, Raw: unavailableMarker},
		Advice:   types.Advice(types.RiskLow),
	}
	d.Explanation = p.explain(ctx, d)
	return d
}

// explain produces the lay explanation for a decision, preferring the
// external explainer and falling back to a locally composed sentence.
func (p *Pipeline) explain(ctx context.Context, d types.Decision) string {
	if p.explainer != nil {
		cctx, cancel := p.callCtx(ctx)
		text, err := p.explainer.Explain(cctx, d.Risk, evidenceSummary(d.Evidence))
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			p.logger.Debug(ctx, "explainer failed, using local explanation", logger.Error(err))
		}
	}
	return basicExplanation(d.Risk, d.Evidence)
}

// finish records decision metrics and returns the decision unchanged.
func (p *Pipeline) finish(_ context.Context, d types.Decision) types.Decision {
	metrics.RecordDecision(string(d.Method), string(d.Risk))
	return d
}

// callCtx bounds a single external-capability call.
func (p *Pipeline) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

// evidenceSummary renders evidence for the external explainer prompt.
func evidenceSummary(ev types.Evidence) string {
	switch e := ev.(type) {
	case types.RuleEvidence:
		return "matched terms: " + strings.Join(e.Labels, ", ")
	case types.SimilarityEvidence:
		return fmt.Sprintf("similar to known description (cosine %.2f)", e.Similarity)
	case types.ClassifierEvidence:
		if e.Raw == unavailableMarker {
			return ""
		}
		return fmt.Sprintf("classifier output %s at confidence %.2f", e.Label, e.Confidence)
	default:
		return ""
	}
}

// basicExplanation composes the non-LLM fallback explanation.
func basicExplanation(risk types.RiskLevel, ev types.Evidence) string {
	switch e := ev.(type) {
	case types.RuleEvidence:
		if len(e.Labels) > 0 {
			return fmt.Sprintf("We recognised: %s. Based on these, we showed %s advice.",
				strings.Join(e.Labels, ", "), titleRisk(risk))
		}
	case types.SimilarityEvidence:
		return fmt.Sprintf("Your text was similar to known breast symptom descriptions (similarity %.2f), so we showed %s advice.",
			e.Similarity, titleRisk(risk))
	}
	return fmt.Sprintf("We could not match clear red-flag terms; we showed %s advice for safety.", titleRisk(risk))
}

// titleRisk renders a band like "High" for explanation text.
func titleRisk(risk types.RiskLevel) string {
	s := strings.ToLower(string(risk))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
