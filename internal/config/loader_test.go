package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/symptomly/triage/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.SimilarityThreshold, convey.ShouldEqual, 0.75)
				convey.So(cfg.ClassifierConfidenceThreshold, convey.ShouldEqual, 0.80)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			// Set environment variables
			_ = os.Setenv("TRIAGE_ADDR", ":8080")
			_ = os.Setenv("TRIAGE_DATA_DIR", "/var/lib/triage")
			_ = os.Setenv("TRIAGE_SIMILARITY_THRESHOLD", "0.8")
			_ = os.Setenv("TRIAGE_MIN_WORDS", "3")
			_ = os.Setenv("TRIAGE_CACHE_SIZE", "256")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/triage")
				convey.So(cfg.SimilarityThreshold, convey.ShouldEqual, 0.8)
				convey.So(cfg.MinWords, convey.ShouldEqual, 3)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 256)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			// Create a temporary YAML config file
			yamlContent := `
addr: ":9090"
data_dir: "/srv/triage/data"
similarity_threshold: 0.7
medium_threshold: 2
high_threshold: 4
llm_model: "qwen2.5:7b"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set the config file path
			_ = os.Setenv("TRIAGE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/triage/data")
				convey.So(cfg.SimilarityThreshold, convey.ShouldEqual, 0.7)
				convey.So(cfg.MediumThreshold, convey.ShouldEqual, 2)
				convey.So(cfg.HighThreshold, convey.ShouldEqual, 4)
				convey.So(cfg.LLMModel, convey.ShouldEqual, "qwen2.5:7b")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
data_dir: "/srv/triage/data"
cache_size: 512
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set both file and environment variables
			_ = os.Setenv("TRIAGE_CONFIG", tmpFile)
			_ = os.Setenv("TRIAGE_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")         // Overridden by env
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/triage/data") // From file
				convey.So(cfg.CacheSize, convey.ShouldEqual, 512)        // From file
			})
		})

		convey.Convey("When loading config with a missing file", func() {
			_ = os.Setenv("TRIAGE_CONFIG", "/nonexistent/triage.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid thresholds", func() {
			_ = os.Setenv("TRIAGE_MEDIUM_THRESHOLD", "6")
			_ = os.Setenv("TRIAGE_HIGH_THRESHOLD", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should reject the configuration", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out-of-range similarity threshold", func() {
			_ = os.Setenv("TRIAGE_SIMILARITY_THRESHOLD", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should reject the configuration", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// clearConfigEnvVars removes every TRIAGE_ variable a test may have set.
func clearConfigEnvVars() {
	vars := []string{
		"TRIAGE_CONFIG",
		"TRIAGE_ADDR",
		"TRIAGE_DATA_DIR",
		"TRIAGE_SIMILARITY_THRESHOLD",
		"TRIAGE_CLASSIFIER_CONFIDENCE_THRESHOLD",
		"TRIAGE_MIN_WORDS",
		"TRIAGE_MIN_CHARS",
		"TRIAGE_MEDIUM_THRESHOLD",
		"TRIAGE_HIGH_THRESHOLD",
		"TRIAGE_CACHE_SIZE",
		"TRIAGE_LLM_MODEL",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

// createTempConfigFile writes yaml content to a temp file and returns its path.
func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "triage-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name()
}
