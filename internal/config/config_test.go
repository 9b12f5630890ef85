package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				validConfig := `
server:
  http_port: "8070"
  metrics_port: "9090"

database:
  dsn: "postgres://localhost:5432/learning_engine"
  max_open_conns: 20
  max_idle_conns: 5

embedding:
  provider: "local"
  endpoint: "http://localhost:8000"
  model: "all-MiniLM-L6-v2"
  dimensions: 384

llm:
  provider: "anthropic"
  model: "claude-sonnet"
  timeout: "30s"
  retry_count: 3
  temperature: 0.3
  max_tokens: 1024

pipeline:
  workers: 4
  max_retries: 5
  stuck_task_threshold: "10m"

logging:
  level: "info"
  format: "json"
`
				err := os.WriteFile(configFile, []byte(validConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())

				Expect(cfg.Server.HTTPPort).To(Equal("8070"))
				Expect(cfg.Server.MetricsPort).To(Equal("9090"))

				Expect(cfg.Database.DSN).To(Equal("postgres://localhost:5432/learning_engine"))
				Expect(cfg.Database.MaxOpenConns).To(Equal(20))

				Expect(cfg.Embedding.Provider).To(Equal("local"))
				Expect(cfg.Embedding.Dimensions).To(Equal(384))

				Expect(cfg.LLM.Provider).To(Equal("anthropic"))
				Expect(cfg.LLM.Timeout).To(Equal(30 * time.Second))
				Expect(cfg.LLM.RetryCount).To(Equal(3))
				Expect(cfg.LLM.Temperature).To(Equal(float32(0.3)))
				Expect(cfg.LLM.MaxTokens).To(Equal(1024))

				Expect(cfg.Pipeline.Workers).To(Equal(4))
				Expect(cfg.Pipeline.MaxRetries).To(Equal(5))
				Expect(cfg.Pipeline.StuckTaskThreshold).To(Equal(10 * time.Minute))

				Expect(cfg.Logging.Level).To(Equal("info"))
				Expect(cfg.Logging.Format).To(Equal("json"))
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
database:
  dsn: "postgres://localhost:5432/learning_engine"
`
				err := os.WriteFile(configFile, []byte(minimalConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load with defaults for missing values", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Database.DSN).To(Equal("postgres://localhost:5432/learning_engine"))
				Expect(cfg.Embedding.Provider).To(Equal("local"))
				Expect(cfg.LLM.Provider).To(Equal("anthropic"))
				Expect(cfg.Pipeline.Workers).To(Equal(4))
				Expect(cfg.Server.HTTPPort).To(Equal("8070"))
			})
		})

		Context("when config file does not exist", func() {
			It("should return an error", func() {
				_, err := Load("/nonexistent/config.yaml")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to read config file"))
			})
		})

		Context("when config file has invalid YAML", func() {
			BeforeEach(func() {
				invalidConfig := `
server:
  http_port: "8070"
  invalid_yaml: [
database:
  dsn: "test"
`
				err := os.WriteFile(configFile, []byte(invalidConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})

		Context("when config has an invalid duration format", func() {
			BeforeEach(func() {
				invalidDurationConfig := `
database:
  dsn: "postgres://localhost:5432/learning_engine"
llm:
  timeout: "not-a-duration"
`
				err := os.WriteFile(configFile, []byte(invalidDurationConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{
				Server:   ServerConfig{HTTPPort: "8070", MetricsPort: "9090"},
				Database: DatabaseConfig{DSN: "postgres://localhost:5432/learning_engine"},
				Embedding: EmbeddingConfig{
					Provider:   "local",
					Dimensions: 384,
				},
				LLM: LLMConfig{
					Provider:    "anthropic",
					Timeout:     30 * time.Second,
					RetryCount:  3,
					Temperature: 0.3,
					MaxTokens:   1024,
				},
				Pipeline: PipelineConfig{Workers: 4, MaxRetries: 5},
				Logging:  LoggingConfig{Level: "info", Format: "json"},
			}
		})

		Context("when config is valid", func() {
			It("should pass validation", func() {
				Expect(validate(cfg)).NotTo(HaveOccurred())
			})
		})

		Context("when embedding provider is invalid", func() {
			BeforeEach(func() {
				cfg.Embedding.Provider = "invalid"
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unsupported embedding provider"))
			})
		})

		Context("when LLM provider is invalid", func() {
			BeforeEach(func() {
				cfg.LLM.Provider = "invalid"
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unsupported LLM provider"))
			})
		})

		Context("when LLM temperature is out of range", func() {
			BeforeEach(func() {
				cfg.LLM.Temperature = 1.5
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("LLM temperature must be between 0.0 and 1.0"))
			})
		})

		Context("when LLM max tokens is invalid", func() {
			BeforeEach(func() {
				cfg.LLM.MaxTokens = 0
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("LLM max tokens must be greater than 0"))
			})
		})

		Context("when the database DSN is missing", func() {
			BeforeEach(func() {
				cfg.Database.DSN = ""
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("database DSN is required"))
			})
		})

		Context("when pipeline workers is invalid", func() {
			BeforeEach(func() {
				cfg.Pipeline.Workers = 0
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("pipeline workers must be greater than 0"))
			})
		})
	})

	Describe("loadFromEnv", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{}
			os.Clearenv()
		})

		Context("when environment variables are set", func() {
			BeforeEach(func() {
				os.Setenv("DATABASE_DSN", "postgres://test:5432/db")
				os.Setenv("LLM_PROVIDER", "bedrock")
				os.Setenv("LLM_MODEL", "test-model")
				os.Setenv("EMBEDDING_PROVIDER", "openai")
				os.Setenv("HTTP_PORT", "3000")
				os.Setenv("METRICS_PORT", "9999")
				os.Setenv("LOG_LEVEL", "debug")
				os.Setenv("PIPELINE_WORKERS", "8")
			})

			AfterEach(func() {
				os.Clearenv()
			})

			It("should load values from the environment", func() {
				Expect(loadFromEnv(cfg)).To(Succeed())

				Expect(cfg.Database.DSN).To(Equal("postgres://test:5432/db"))
				Expect(cfg.LLM.Provider).To(Equal("bedrock"))
				Expect(cfg.LLM.Model).To(Equal("test-model"))
				Expect(cfg.Embedding.Provider).To(Equal("openai"))
				Expect(cfg.Server.HTTPPort).To(Equal("3000"))
				Expect(cfg.Server.MetricsPort).To(Equal("9999"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
				Expect(cfg.Pipeline.Workers).To(Equal(8))
			})
		})

		Context("when no environment variables are set", func() {
			It("should not modify the config", func() {
				original := *cfg
				Expect(loadFromEnv(cfg)).To(Succeed())
				Expect(*cfg).To(Equal(original))
			})
		})
	})
})
