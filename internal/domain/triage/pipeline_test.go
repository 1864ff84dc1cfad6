package triage_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/adapters/ai/mock"
	"github.com/symptomly/triage/internal/adapters/index"
	"github.com/symptomly/triage/internal/domain/triage"
	"github.com/symptomly/triage/internal/domain/types"
	"github.com/symptomly/triage/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// testStore holds a single HIGH exemplar embedded as the first basis vector.
func testStore() index.Store {
	return index.NewMemStore(index.WithArtifact(index.Artifact{
		Dim:     3,
		Vectors: [][]float32{{1, 0, 0}},
		Meta: []index.Exemplar{
			{Text: "dimpling or puckering of the breast skin", Risk: types.RiskHigh},
		},
	}))
}

// testProvider embeds two known phrases at controlled similarities to the
// stored exemplar: one close (0.82) and everything else far (0.60).
func testProvider() *mock.Provider {
	provider := mock.NewProvider()
	provider.Emb.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if text == "my breast looks a bit unusual lately" {
			return []float32{0.82, 0.5724, 0}, nil
		}
		return []float32{0.6, 0.8, 0}, nil
	}
	return provider
}

func newPipeline(provider *mock.Provider, opts ...triage.Option) *triage.Pipeline {
	base := []triage.Option{
		triage.WithProvider(provider),
		triage.WithStore(testStore()),
	}
	return triage.New(append(base, opts...)...)
}

func TestPipeline_InputGate(t *testing.T) {
	Convey("Given a pipeline with default policy", t, func() {
		p := newPipeline(testProvider())
		ctx := context.Background()

		Convey("When checking an empty description", func() {
			d := p.Check(ctx, "")

			Convey("Then it terminates at the gate with LOW and method none", func() {
				So(d.Method, ShouldEqual, types.MethodNone)
				So(d.Risk, ShouldEqual, types.RiskLow)
				So(d.Evidence, ShouldBeNil)
				So(d.Advice, ShouldContainSubstring, "describe your symptoms")
			})
		})

		Convey("When checking text failing both minima", func() {
			d := p.Check(ctx, "ok")

			Convey("Then the gate rejects it", func() {
				So(d.Method, ShouldEqual, types.MethodNone)
				So(d.Risk, ShouldEqual, types.RiskLow)
			})
		})

		Convey("When checking short text passing the word minimum", func() {
			// Two words pass the gate even at seven characters.
			d := p.Check(ctx, "bad ache")

			Convey("Then the pipeline runs past the gate", func() {
				So(d.Method, ShouldNotEqual, types.MethodNone)
			})
		})
	})
}

func TestPipeline_RuleStage(t *testing.T) {
	Convey("Given a pipeline with the default rule table", t, func() {
		p := newPipeline(testProvider())
		ctx := context.Background()

		Convey("When an override phrase is checked", func() {
			d := p.Check(ctx, "bloody nipple discharge today")

			Convey("Then the decision is rule-based HIGH with one label", func() {
				So(d.Method, ShouldEqual, types.MethodRuleBased)
				So(d.Risk, ShouldEqual, types.RiskHigh)

				ev, ok := d.Evidence.(types.RuleEvidence)
				So(ok, ShouldBeTrue)
				So(ev.Labels, ShouldHaveLength, 1)
				So(d.Advice, ShouldContainSubstring, "NHS 111")
			})
		})

		Convey("When a weak single-signal phrase is checked", func() {
			d := p.Check(ctx, "mild tenderness")

			Convey("Then the decision is rule-based LOW", func() {
				So(d.Method, ShouldEqual, types.MethodRuleBased)
				So(d.Risk, ShouldEqual, types.RiskLow)

				ev, ok := d.Evidence.(types.RuleEvidence)
				So(ok, ShouldBeTrue)
				So(ev.Score, ShouldEqual, 1)
			})
		})
	})
}

func TestPipeline_SimilarityStage(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pipeline with a close HIGH exemplar", t, func() {
		p := newPipeline(testProvider())

		Convey("When text near the exemplar carries a context keyword", func() {
			d := p.Check(ctx, "my breast looks a bit unusual lately")

			Convey("Then the decision is similarity HIGH with the reference", func() {
				So(d.Method, ShouldEqual, types.MethodSimilarity)
				So(d.Risk, ShouldEqual, types.RiskHigh)

				ev, ok := d.Evidence.(types.SimilarityEvidence)
				So(ok, ShouldBeTrue)
				So(ev.ReferenceText, ShouldEqual, "dimpling or puckering of the breast skin")
				So(ev.Similarity, ShouldAlmostEqual, 0.82, 0.001)
			})
		})

		Convey("When the similarity is below the acceptance threshold", func() {
			d := p.Check(ctx, "a weird sensation all over my chest")

			Convey("Then the pipeline falls through to the classifier", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
				So(d.Risk, ShouldEqual, types.RiskLow)
			})
		})
	})

	Convey("Given acceptance is monotone in the threshold", t, func() {
		text := "my breast looks a bit unusual lately"

		Convey("When the threshold is raised above the match", func() {
			p := newPipeline(testProvider(), triage.WithAcceptanceThreshold(0.9))
			d := p.Check(ctx, text)

			Convey("Then the previously accepted match is rejected", func() {
				So(d.Method, ShouldNotEqual, types.MethodSimilarity)
			})
		})

		Convey("When the threshold is lowered below the match", func() {
			p := newPipeline(testProvider(), triage.WithAcceptanceThreshold(0.5))
			d := p.Check(ctx, text)

			Convey("Then the match is accepted", func() {
				So(d.Method, ShouldEqual, types.MethodSimilarity)
			})
		})
	})

	Convey("Given the context keyword gate", t, func() {
		provider := testProvider()
		provider.Emb.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		}
		p := newPipeline(provider)

		Convey("When a perfect match has no domain keyword", func() {
			d := p.Check(ctx, "everything feels strange and off today")

			Convey("Then the similarity stage does not accept it", func() {
				So(d.Method, ShouldNotEqual, types.MethodSimilarity)
			})
		})
	})
}

func TestPipeline_NormalizeAndRetry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a normalizer that produces a rule-matching paraphrase", t, func() {
		provider := testProvider()
		provider.Norm.NormalizeFunc = func(_ context.Context, _ string) (string, error) {
			return "persistent pain in my breast", nil
		}
		p := newPipeline(provider)

		Convey("When the raw text matches nothing", func() {
			d := p.Check(ctx, "something wrong with me lately")

			Convey("Then the rerun decides rule-based and is tagged paraphrased", func() {
				So(d.Method, ShouldEqual, types.MethodRuleBased)
				So(d.Risk, ShouldEqual, types.RiskMedium)
				So(d.Paraphrased, ShouldBeTrue)
				So(d.NormalizedText, ShouldEqual, "persistent pain in my breast")
			})
		})
	})

	Convey("Given a normalizer that only changes case", t, func() {
		provider := testProvider()
		provider.Norm.NormalizeFunc = func(_ context.Context, text string) (string, error) {
			return "SOMETHING WRONG WITH ME LATELY", nil
		}
		p := newPipeline(provider)

		Convey("When the raw text matches nothing", func() {
			d := p.Check(ctx, "something wrong with me lately")

			Convey("Then the retry is skipped and the fallback decides", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
				So(d.Paraphrased, ShouldBeFalse)
			})
		})
	})

	Convey("Given a failing normalizer", t, func() {
		provider := testProvider()
		provider.Norm.NormalizeFunc = func(_ context.Context, _ string) (string, error) {
			return "", errors.New("model offline")
		}
		p := newPipeline(provider)

		Convey("When the raw text matches nothing", func() {
			d := p.Check(ctx, "something wrong with me lately")

			Convey("Then the pipeline still terminates via the fallback", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
				So(d.Risk, ShouldEqual, types.RiskLow)
			})
		})
	})
}

func TestPipeline_FallbackStage(t *testing.T) {
	ctx := context.Background()

	Convey("Given a confident classifier verdict without domain context", t, func() {
		provider := testProvider()
		provider.Cls.ClassifyFunc = func(_ context.Context, _ string) (ai.Verdict, error) {
			return ai.Verdict{Label: types.RiskHigh, Confidence: 0.9, Raw: `{"high":0.9}`}, nil
		}
		p := newPipeline(provider)

		Convey("When the text reaches the fallback", func() {
			d := p.Check(ctx, "everything feels strange and off today")

			Convey("Then the confident label stands", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
				So(d.Risk, ShouldEqual, types.RiskHigh)
			})
		})
	})

	Convey("Given a weak classifier verdict without domain context", t, func() {
		provider := testProvider()
		provider.Cls.ClassifyFunc = func(_ context.Context, _ string) (ai.Verdict, error) {
			return ai.Verdict{Label: types.RiskHigh, Confidence: 0.6, Raw: `{"high":0.6}`}, nil
		}
		p := newPipeline(provider)

		Convey("When the text reaches the fallback", func() {
			d := p.Check(ctx, "everything feels strange and off today")

			Convey("Then the guardrail forces the label down to LOW", func() {
				So(d.Risk, ShouldEqual, types.RiskLow)

				ev, ok := d.Evidence.(types.ClassifierEvidence)
				So(ok, ShouldBeTrue)
				So(ev.Label, ShouldEqual, types.RiskLow)
				So(ev.Confidence, ShouldAlmostEqual, 0.6)
			})
		})
	})

	Convey("Given a failing classifier", t, func() {
		provider := testProvider()
		provider.Cls.ClassifyFunc = func(_ context.Context, _ string) (ai.Verdict, error) {
			return ai.Verdict{}, errors.New("model offline")
		}
		p := newPipeline(provider)

		Convey("When the text reaches the fallback", func() {
			d := p.Check(ctx, "something wrong with me lately")

			Convey("Then the decision is LOW with an unavailable marker", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
				So(d.Risk, ShouldEqual, types.RiskLow)

				ev, ok := d.Evidence.(types.ClassifierEvidence)
				So(ok, ShouldBeTrue)
				So(ev.Raw, ShouldContainSubstring, "unavailable")
			})
		})
	})
}

func TestPipeline_Degradation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a failing embedder", t, func() {
		provider := testProvider()
		provider.Emb.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
			return nil, errors.New("embedding host down")
		}
		p := newPipeline(provider)

		Convey("When the text reaches the similarity stage", func() {
			d := p.Check(ctx, "my breast looks a bit unusual lately")

			Convey("Then the stage degrades and the fallback still decides", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
			})
		})
	})

	Convey("Given an index that failed to build", t, func() {
		p := triage.New(
			triage.WithProvider(testProvider()),
			triage.WithStore(index.NewMemStore()),
		)

		Convey("When the text reaches the similarity stage", func() {
			d := p.Check(ctx, "my breast looks a bit unusual lately")

			Convey("Then the pipeline completes without the similarity stage", func() {
				So(d.Method, ShouldEqual, types.MethodClassifier)
			})
		})
	})
}

func TestPipeline_Idempotence(t *testing.T) {
	Convey("Given deterministic capabilities and a frozen index", t, func() {
		p := newPipeline(testProvider())
		ctx := context.Background()

		Convey("When the same input is checked twice", func() {
			first := p.Check(ctx, "my breast looks a bit unusual lately")
			second := p.Check(ctx, "my breast looks a bit unusual lately")

			Convey("Then the decisions are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestPipeline_Explanations(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pipeline without an explainer", t, func() {
		provider := testProvider()
		p := triage.New(
			triage.WithStore(testStore()),
			triage.WithEmbedder(provider.Emb),
			triage.WithNormalizer(provider.Norm),
			triage.WithClassifier(provider.Cls),
		)

		Convey("When a rule decision is produced", func() {
			d := p.Check(ctx, "mild tenderness")

			Convey("Then the local explanation names the recognised terms", func() {
				So(d.Explanation, ShouldContainSubstring, "We recognised")
				So(d.Explanation, ShouldContainSubstring, "tenderness")
			})
		})

		Convey("When a similarity decision is produced", func() {
			d := p.Check(ctx, "my breast looks a bit unusual lately")

			Convey("Then the local explanation mentions the similarity", func() {
				So(d.Explanation, ShouldContainSubstring, "similar to known breast symptom descriptions")
			})
		})

		Convey("When the fallback decides", func() {
			d := p.Check(ctx, "something wrong with me lately")

			Convey("Then the local explanation notes the missing match", func() {
				So(d.Explanation, ShouldContainSubstring, "could not match")
			})
		})
	})
}
