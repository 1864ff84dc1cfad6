package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/symptomly/triage/internal/adapters/ai/mock"
	"github.com/symptomly/triage/internal/adapters/index"
	service "github.com/symptomly/triage/internal/app"
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

// testStore returns a tiny frozen exemplar index.
func testStore() index.Store {
	return index.NewMemStore(index.WithArtifact(index.Artifact{
		Dim:     3,
		Vectors: [][]float32{{1, 0, 0}},
		Meta: []index.Exemplar{
			{Text: "lump in the breast", Risk: types.RiskHigh},
		},
	}))
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithProvider(mock.NewProvider()),
		service.WithStore(testStore()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDataDir("/tmp/triage-data"),
			service.WithInputGate(3, 10),
			service.WithThresholds(2, 4),
			service.WithSimilarityThreshold(0.8),
			service.WithConfidenceFloor(0.9),
			service.WithCacheSize(64),
			service.WithAICallTimeout(5*time.Second),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["similarityReady"], ShouldEqual, true)
				So(stats["exemplars"], ShouldEqual, 1)
			})

			Convey("And starting twice should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service pointing at a missing data directory", t, func() {
		svc := service.New(
			service.WithProvider(mock.NewProvider()),
			service.WithDataDir("/nonexistent/triage-data"),
		)
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then it still starts, with similarity disabled", func() {
				So(err, ShouldBeNil)

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["similarityReady"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Check(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		defer svc.Stop()

		Convey("When checking a red-flag description", func() {
			d := svc.Check(ctx, "bloody nipple discharge today")

			Convey("Then the decision is rule-based HIGH", func() {
				So(d.Method, ShouldEqual, types.MethodRuleBased)
				So(d.Risk, ShouldEqual, types.RiskHigh)
			})
		})

		Convey("When checking messy input", func() {
			d := svc.Check(ctx, "  bloody\tnipple   discharge today\n")

			Convey("Then sanitization still yields the rule match", func() {
				So(d.Method, ShouldEqual, types.MethodRuleBased)
				So(d.Risk, ShouldEqual, types.RiskHigh)
			})
		})

		Convey("When checking an empty description", func() {
			d := svc.Check(ctx, "")

			Convey("Then the gate terminal state is returned", func() {
				So(d.Method, ShouldEqual, types.MethodNone)
				So(d.Risk, ShouldEqual, types.RiskLow)
			})
		})

		Convey("When checking the same description twice", func() {
			first := svc.Check(ctx, "mild tenderness")
			second := svc.Check(ctx, "mild tenderness")

			Convey("Then the cached decision matches the first", func() {
				So(second, ShouldResemble, first)

				stats := svc.GetStats()
				So(stats["cachedDecisions"], ShouldBeGreaterThan, 0)
			})
		})
	})
}
