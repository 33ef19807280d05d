package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

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
  port: "8080"
  metrics_port: "9090"

engine:
  admin_principal: "ffffffffffffffffffffffffffffffffffffffff"
  self_identity: "0100000000000000000000000000000000000000"
  creation_fee: 1000
  execution_fee: 500

persistence:
  host: "db.internal"
  port: 5432
  user: "workflow_user"
  database: "workflow_engine"
  ssl_mode: "disable"

redis:
  addr: "redis.internal:6379"
  failure_threshold: 0.4
  reset_timeout: "15s"

nats:
  url: "nats://nats.internal:4222"
  request_timeout: "10s"

logging:
  level: "debug"
  format: "json"
`
				err := os.WriteFile(configFile, []byte(validConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())

				Expect(cfg.Server.Port).To(Equal("8080"))
				Expect(cfg.Server.MetricsPort).To(Equal("9090"))

				Expect(cfg.Engine.AdminPrincipal).To(Equal("ffffffffffffffffffffffffffffffffffffffff"))
				Expect(cfg.Engine.CreationFee).To(Equal(uint64(1000)))
				Expect(cfg.Engine.ExecutionFee).To(Equal(uint64(500)))

				Expect(cfg.Persistence.Host).To(Equal("db.internal"))
				Expect(cfg.Persistence.Database).To(Equal("workflow_engine"))

				Expect(cfg.Redis.Addr).To(Equal("redis.internal:6379"))
				Expect(cfg.Redis.FailureThreshold).To(Equal(0.4))
				Expect(cfg.Redis.ResetTimeout).To(Equal(15 * time.Second))

				Expect(cfg.NATS.URL).To(Equal("nats://nats.internal:4222"))
				Expect(cfg.NATS.RequestTimeout).To(Equal(10 * time.Second))

				Expect(cfg.Logging.Level).To(Equal("debug"))
				Expect(cfg.Logging.Format).To(Equal("json"))
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
engine:
  admin_principal: "ffffffffffffffffffffffffffffffffffffffff"
`
				err := os.WriteFile(configFile, []byte(minimalConfig), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load with defaults for missing values", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Server.Port).To(Equal("8080"))
				Expect(cfg.Persistence.Database).To(Equal("workflow_engine"))
				Expect(cfg.Redis.FailureThreshold).To(Equal(0.5))
				Expect(cfg.Logging.Level).To(Equal("info"))
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
  port: "8080"
  invalid_yaml: [
engine:
  admin_principal: "test"
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

		Context("when config is missing a required field", func() {
			BeforeEach(func() {
				missingAdmin := `
server:
  port: "8080"
`
				err := os.WriteFile(configFile, []byte(missingAdmin), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("admin_principal is required"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{
				Server: ServerConfig{Port: "8080", MetricsPort: "9090"},
				Engine: EngineConfig{AdminPrincipal: "ffffffffffffffffffffffffffffffffffffffff"},
				Persistence: PersistenceConfig{
					Host: "localhost", Port: 5432, Database: "workflow_engine", SSLMode: "disable",
				},
				Redis:   RedisConfig{Addr: "localhost:6379", FailureThreshold: 0.5, ResetTimeout: 30 * time.Second},
				Logging: LoggingConfig{Level: "info", Format: "json"},
			}
		})

		Context("when config is valid", func() {
			It("should pass validation", func() {
				Expect(validate(cfg)).To(Succeed())
			})
		})

		Context("when admin_principal is not 40 hex characters", func() {
			BeforeEach(func() {
				cfg.Engine.AdminPrincipal = "not-hex"
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("40-character hex string"))
			})
		})

		Context("when redis failure_threshold is out of range", func() {
			BeforeEach(func() {
				cfg.Redis.FailureThreshold = 1.5
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failure_threshold must be between 0 and 1"))
			})
		})

		Context("when logging level is unsupported", func() {
			BeforeEach(func() {
				cfg.Logging.Level = "verbose"
			})

			It("should return a validation error", func() {
				err := validate(cfg)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("unsupported logging level"))
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
				os.Setenv("WORKFLOW_SERVER_PORT", "3000")
				os.Setenv("WORKFLOW_ADMIN_PRINCIPAL", "0100000000000000000000000000000000000000")
				os.Setenv("WORKFLOW_DB_HOST", "env-db")
				os.Setenv("WORKFLOW_DB_PORT", "5433")
				os.Setenv("WORKFLOW_LOG_LEVEL", "debug")
			})

			AfterEach(func() {
				os.Clearenv()
			})

			It("should load values from the environment", func() {
				Expect(loadFromEnv(cfg)).To(Succeed())

				Expect(cfg.Server.Port).To(Equal("3000"))
				Expect(cfg.Engine.AdminPrincipal).To(Equal("0100000000000000000000000000000000000000"))
				Expect(cfg.Persistence.Host).To(Equal("env-db"))
				Expect(cfg.Persistence.Port).To(Equal(5433))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})
		})

		Context("when WORKFLOW_DB_PORT is not a number", func() {
			BeforeEach(func() {
				os.Setenv("WORKFLOW_DB_PORT", "not-a-port")
			})

			AfterEach(func() {
				os.Clearenv()
			})

			It("should return an error", func() {
				err := loadFromEnv(cfg)
				Expect(err).To(HaveOccurred())
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
