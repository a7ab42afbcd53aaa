package config

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/flow-controller/internal/model"
)

// GPIO holds BCM pin numbers. Every field is required and must be unique.
type GPIO struct {
	FlowMeter *int `yaml:"flow_meter"`
	Valve     *int `yaml:"valve"`

	// operator buttons, active-low with pull-ups
	Trigger1s   *int `yaml:"trigger_1s"`
	Trigger3s   *int `yaml:"trigger_3s"`
	Trigger10s  *int `yaml:"trigger_10s"`
	Trigger100s *int `yaml:"trigger_100s"`
}

type Display struct {
	Port    string `yaml:"port"` // empty disables the display
	Baud    int    `yaml:"baud"`
	Columns int    `yaml:"columns"`
	Rows    int    `yaml:"rows"`
}

type MQTT struct {
	Broker   string `yaml:"broker"` // empty disables MQTT
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Datadog struct {
	Enabled   bool     `yaml:"enabled"`
	AgentAddr string   `yaml:"agent_addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Ntfy struct {
	Server string `yaml:"server"`
	Topic  string `yaml:"topic"` // empty disables notifications
}

type API struct {
	Port int `yaml:"port"` // 0 disables the status API
}

type Boot struct {
	ScriptPath      string `yaml:"script_path"`
	ServicePath     string `yaml:"service_path"`
	MainServicePath string `yaml:"main_service_path"`
	BinaryPath      string `yaml:"binary_path"`
}

type Config struct {
	ConfigFile string        `yaml:"-"`
	EnvFile    string        `yaml:"-"`
	LogLevel   zerolog.Level `yaml:"-"`

	LogLevelName    string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
	SafeMode        bool   `yaml:"safe_mode"`
	GPIOChip        string `yaml:"gpio_chip"`
	ValveActiveHigh bool   `yaml:"valve_active_high"`

	GPIO    GPIO    `yaml:"gpio"`
	Display Display `yaml:"display"`
	MQTT    MQTT    `yaml:"mqtt"`
	Datadog Datadog `yaml:"datadog"`
	Ntfy    Ntfy    `yaml:"ntfy"`
	API     API     `yaml:"api"`
	Boot    Boot    `yaml:"boot"`
}

func intPtr(i int) *int {
	return &i
}

// Default returns a configuration for the reference wiring.
func Default() Config {
	return Config{
		LogLevelName: "info",
		LogFile:      "/var/log/flow-controller.log",
		GPIOChip:     "gpiochip0",
		GPIO: GPIO{
			FlowMeter:   intPtr(17),
			Valve:       intPtr(22),
			Trigger1s:   intPtr(5),
			Trigger3s:   intPtr(6),
			Trigger10s:  intPtr(13),
			Trigger100s: intPtr(19),
		},
		Display: Display{
			Baud:    9600,
			Columns: 16,
			Rows:    2,
		},
		MQTT: MQTT{
			ClientID: "flow-controller",
		},
		Datadog: Datadog{
			AgentAddr: "127.0.0.1:8125",
			Namespace: "flow.",
		},
		Ntfy: Ntfy{
			Server: "https://ntfy.sh",
		},
		Boot: Boot{
			ScriptPath:      "/usr/local/bin/flow-controller-gpio.sh",
			ServicePath:     "/etc/systemd/system/flow-controller-gpio.service",
			MainServicePath: "/etc/systemd/system/flow-controller.service",
			BinaryPath:      "/usr/local/bin/flow-controller",
		},
	}
}

// Load parses flags, the optional dotenv file and the YAML config file, then
// validates the result. Invalid configuration panics.
func Load() Config {
	var configFile, envFile, logLevel string

	flag.StringVar(&configFile, "config-file", "/etc/flow-controller/config.yaml", "Path to controller config file")
	flag.StringVar(&envFile, "env-file", "", "Optional dotenv file with secrets")
	flag.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := LoadFile(configFile, envFile)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if logLevel != "" {
		cfg.LogLevelName = logLevel
		cfg.LogLevel = parseLogLevel(logLevel)
	}
	return cfg
}

// LoadFile reads configFile over the defaults. A missing file leaves the
// defaults in place. If envFile is set it is loaded into the process
// environment first; FLOW_* variables then override file values.
func LoadFile(configFile, envFile string) (Config, error) {
	cfg := Default()
	cfg.ConfigFile = configFile
	cfg.EnvFile = envFile

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(configFile)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.ensureDefaults()
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.validate()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	overrides := map[string]*string{
		"FLOW_MQTT_BROKER":   &cfg.MQTT.Broker,
		"FLOW_MQTT_USERNAME": &cfg.MQTT.Username,
		"FLOW_MQTT_PASSWORD": &cfg.MQTT.Password,
		"FLOW_DD_AGENT_ADDR": &cfg.Datadog.AgentAddr,
		"FLOW_NTFY_TOPIC":    &cfg.Ntfy.Topic,
	}
	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func (cfg *Config) ensureDefaults() {
	def := Default()

	if cfg.GPIOChip == "" {
		cfg.GPIOChip = def.GPIOChip
	}
	if cfg.Display.Baud == 0 {
		cfg.Display.Baud = def.Display.Baud
	}
	if cfg.Display.Columns == 0 {
		cfg.Display.Columns = def.Display.Columns
	}
	if cfg.Display.Rows == 0 {
		cfg.Display.Rows = def.Display.Rows
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = def.MQTT.ClientID
	}
	if cfg.Ntfy.Server == "" {
		cfg.Ntfy.Server = def.Ntfy.Server
	}
	if cfg.Boot.ScriptPath == "" {
		cfg.Boot.ScriptPath = def.Boot.ScriptPath
	}
	if cfg.Boot.ServicePath == "" {
		cfg.Boot.ServicePath = def.Boot.ServicePath
	}
	if cfg.Boot.MainServicePath == "" {
		cfg.Boot.MainServicePath = def.Boot.MainServicePath
	}
	if cfg.Boot.BinaryPath == "" {
		cfg.Boot.BinaryPath = def.Boot.BinaryPath
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValvePin returns the valve output. Active means open; the reference
// hardware opens on LOW.
func (cfg Config) ValvePin() model.GPIOPin {
	return model.GPIOPin{Number: *cfg.GPIO.Valve, ActiveHigh: cfg.ValveActiveHigh}
}

// TriggerPin returns the button pin for a trigger duration, or -1.
func (cfg Config) TriggerPin(seconds int) int {
	var p *int
	switch seconds {
	case 1:
		p = cfg.GPIO.Trigger1s
	case 3:
		p = cfg.GPIO.Trigger3s
	case 10:
		p = cfg.GPIO.Trigger10s
	case 100:
		p = cfg.GPIO.Trigger100s
	}
	if p == nil {
		return -1
	}
	return *p
}

// Triggers returns the fixed trigger table wired to the configured pins.
func (cfg Config) Triggers() []model.Trigger {
	return model.Triggers(cfg.TriggerPin)
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("yaml")

		if field.IsNil() {
			missingFields = append(missingFields, "gpio."+fieldName)
			continue
		}

		pin := int(field.Elem().Int())
		if other, exists := usedPins[pin]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[pin] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}
