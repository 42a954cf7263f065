// Package config loads the robot configuration file into immutable typed
// structs. Values are read once at startup and the resulting Config is
// passed to each component at construction; nothing consults viper after
// Load returns.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Tiers holds a three-bucket speed ratio policy for configuration
// unmarshalling. Thresholds are in the unit native to the operation that
// uses them (seconds, meters, degrees, or encoder counts).
type Tiers struct {
	FarThreshold    float64 `json:"farThreshold" mapstructure:"farThreshold"`
	MediumThreshold float64 `json:"mediumThreshold" mapstructure:"mediumThreshold"`
	FarRatio        float64 `json:"farRatio" mapstructure:"farRatio"`
	MediumRatio     float64 `json:"mediumRatio" mapstructure:"mediumRatio"`
	NearRatio       float64 `json:"nearRatio" mapstructure:"nearRatio"`
}

// DriveConfig holds drive train tuning.
type DriveConfig struct {
	ForwardDirection  float64 `json:"forwardDirection" mapstructure:"forwardDirection"`
	BackwardDirection float64 `json:"backwardDirection" mapstructure:"backwardDirection"`
	LeftDirection     float64 `json:"leftDirection" mapstructure:"leftDirection"`
	RightDirection    float64 `json:"rightDirection" mapstructure:"rightDirection"`

	NormalLinearSpeedRatio     float64 `json:"normalLinearSpeedRatio" mapstructure:"normalLinearSpeedRatio"`
	AlternateLinearSpeedRatio  float64 `json:"alternateLinearSpeedRatio" mapstructure:"alternateLinearSpeedRatio"`
	NormalTurningSpeedRatio    float64 `json:"normalTurningSpeedRatio" mapstructure:"normalTurningSpeedRatio"`
	AlternateTurningSpeedRatio float64 `json:"alternateTurningSpeedRatio" mapstructure:"alternateTurningSpeedRatio"`

	// Completion tolerances.
	TimeThreshold     float64 `json:"timeThreshold" mapstructure:"timeThreshold"`
	DistanceThreshold float64 `json:"distanceThreshold" mapstructure:"distanceThreshold"`
	HeadingThreshold  float64 `json:"headingThreshold" mapstructure:"headingThreshold"`

	LinearTimeTiers  Tiers `json:"linearTimeTiers" mapstructure:"linearTimeTiers"`
	TurningTimeTiers Tiers `json:"turningTimeTiers" mapstructure:"turningTimeTiers"`
	DistanceTiers    Tiers `json:"distanceTiers" mapstructure:"distanceTiers"`
	HeadingTiers     Tiers `json:"headingTiers" mapstructure:"headingTiers"`

	// Per-tick acceleration smoothing for teleop driving.
	MaximumLinearSpeedChange float64 `json:"maximumLinearSpeedChange" mapstructure:"maximumLinearSpeedChange"`
	MaximumTurnSpeedChange   float64 `json:"maximumTurnSpeedChange" mapstructure:"maximumTurnSpeedChange"`
}

// FeederConfig holds feeder tuning.
type FeederConfig struct {
	Clockwise        float64 `json:"clockwise" mapstructure:"clockwise"`
	CounterClockwise float64 `json:"counterClockwise" mapstructure:"counterClockwise"`
	TimeThreshold    float64 `json:"timeThreshold" mapstructure:"timeThreshold"`
	TimeTiers        Tiers   `json:"timeTiers" mapstructure:"timeTiers"`
}

// ShooterConfig holds catapult tuning.
type ShooterConfig struct {
	UpDirection   float64 `json:"upDirection" mapstructure:"upDirection"`
	DownDirection float64 `json:"downDirection" mapstructure:"downDirection"`

	NormalSpeedRatio     float64 `json:"normalSpeedRatio" mapstructure:"normalSpeedRatio"`
	AlternateSpeedRatio  float64 `json:"alternateSpeedRatio" mapstructure:"alternateSpeedRatio"`
	MinPowerSpeed        float64 `json:"minPowerSpeed" mapstructure:"minPowerSpeed"`
	PowerAdjustmentRatio float64 `json:"powerAdjustmentRatio" mapstructure:"powerAdjustmentRatio"`

	TimeThreshold    float64 `json:"timeThreshold" mapstructure:"timeThreshold"`
	EncoderThreshold int     `json:"encoderThreshold" mapstructure:"encoderThreshold"`
	EncoderMaxLimit  int     `json:"encoderMaxLimit" mapstructure:"encoderMaxLimit"`
	EncoderMinLimit  int     `json:"encoderMinLimit" mapstructure:"encoderMinLimit"`

	TimeTiers    Tiers `json:"timeTiers" mapstructure:"timeTiers"`
	EncoderTiers Tiers `json:"encoderTiers" mapstructure:"encoderTiers"`
}

// TeleopConfig holds driver-assist tuning used by the teleop controller.
type TeleopConfig struct {
	MaxHoldToShootTime   float64 `json:"maxHoldToShootTime" mapstructure:"maxHoldToShootTime"`
	MinHoldToShootPower  float64 `json:"minHoldToShootPower" mapstructure:"minHoldToShootPower"`
	CatapultFeedPosition float64 `json:"catapultFeedPosition" mapstructure:"catapultFeedPosition"`
	TrussPassPosition    float64 `json:"trussPassPosition" mapstructure:"trussPassPosition"`
	OptimumShootingRange float64 `json:"optimumShootingRange" mapstructure:"optimumShootingRange"`
	ShootingAngleOffset  float64 `json:"shootingAngleOffset" mapstructure:"shootingAngleOffset"`
	UserMessageSeconds   float64 `json:"userMessageSeconds" mapstructure:"userMessageSeconds"`
	ShooterSetupSeconds  float64 `json:"shooterSetupSeconds" mapstructure:"shooterSetupSeconds"`
	ShooterSetupSpeed    float64 `json:"shooterSetupSpeed" mapstructure:"shooterSetupSpeed"`
}

// VisionConfig holds the target server settings.
type VisionConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// StorageConfig selects the run-history backend.
type StorageConfig struct {
	Type       string `json:"type" mapstructure:"type"` // memory, sqlite, postgres
	SqlitePath string `json:"sqlitePath" mapstructure:"sqlitePath"`

	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// InfluxConfig holds telemetry settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds the optional remote log sink.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Config is the complete robot configuration.
type Config struct {
	LogLevel          string  `json:"logLevel" mapstructure:"logLevel"`
	LogsDir           string  `json:"logsDir" mapstructure:"logsDir"`
	ScriptsDir        string  `json:"scriptsDir" mapstructure:"scriptsDir"`
	TickPeriodMs      int     `json:"tickPeriodMs" mapstructure:"tickPeriodMs"`
	WaitTimeThreshold float64 `json:"waitTimeThreshold" mapstructure:"waitTimeThreshold"`

	Drive   DriveConfig   `json:"drive" mapstructure:"drive"`
	Feeder  FeederConfig  `json:"feeder" mapstructure:"feeder"`
	Shooter ShooterConfig `json:"shooter" mapstructure:"shooter"`
	Teleop  TeleopConfig  `json:"teleop" mapstructure:"teleop"`
	Vision  VisionConfig  `json:"vision" mapstructure:"vision"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Influx  InfluxConfig  `json:"influx" mapstructure:"influx"`
	Graylog GraylogConfig `json:"graylog" mapstructure:"graylog"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "./logs")
	v.SetDefault("scriptsDir", "./scripts")
	v.SetDefault("tickPeriodMs", 10)
	v.SetDefault("waitTimeThreshold", 0.0)

	v.SetDefault("drive.forwardDirection", 1.0)
	v.SetDefault("drive.backwardDirection", -1.0)
	v.SetDefault("drive.leftDirection", -1.0)
	v.SetDefault("drive.rightDirection", 1.0)
	v.SetDefault("drive.normalLinearSpeedRatio", 1.0)
	v.SetDefault("drive.alternateLinearSpeedRatio", 0.5)
	v.SetDefault("drive.normalTurningSpeedRatio", 1.0)
	v.SetDefault("drive.alternateTurningSpeedRatio", 0.5)
	v.SetDefault("drive.timeThreshold", 0.1)
	v.SetDefault("drive.distanceThreshold", 0.5)
	v.SetDefault("drive.headingThreshold", 3.0)
	v.SetDefault("drive.linearTimeTiers", tierDefaults(1.0, 0.5))
	v.SetDefault("drive.turningTimeTiers", tierDefaults(1.0, 0.5))
	v.SetDefault("drive.distanceTiers", tierDefaults(5.0, 2.0))
	v.SetDefault("drive.headingTiers", tierDefaults(25.0, 15.0))
	v.SetDefault("drive.maximumLinearSpeedChange", 0.25)
	v.SetDefault("drive.maximumTurnSpeedChange", 0.25)

	v.SetDefault("feeder.clockwise", 1.0)
	v.SetDefault("feeder.counterClockwise", -1.0)
	v.SetDefault("feeder.timeThreshold", 0.1)
	v.SetDefault("feeder.timeTiers", tierDefaults(1.0, 0.5))

	v.SetDefault("shooter.upDirection", -1.0)
	v.SetDefault("shooter.downDirection", 1.0)
	v.SetDefault("shooter.normalSpeedRatio", 1.0)
	v.SetDefault("shooter.alternateSpeedRatio", 0.5)
	v.SetDefault("shooter.minPowerSpeed", 0.4)
	v.SetDefault("shooter.powerAdjustmentRatio", 0.006)
	v.SetDefault("shooter.timeThreshold", 0.1)
	v.SetDefault("shooter.encoderThreshold", 10)
	v.SetDefault("shooter.encoderMaxLimit", 700)
	v.SetDefault("shooter.encoderMinLimit", 0)
	v.SetDefault("shooter.timeTiers", tierDefaults(1.0, 0.5))
	v.SetDefault("shooter.encoderTiers", tierDefaults(200.0, 50.0))

	v.SetDefault("teleop.maxHoldToShootTime", 1.5)
	v.SetDefault("teleop.minHoldToShootPower", 50.0)
	v.SetDefault("teleop.catapultFeedPosition", 0.0)
	v.SetDefault("teleop.trussPassPosition", 250.0)
	v.SetDefault("teleop.optimumShootingRange", 10.0)
	v.SetDefault("teleop.shootingAngleOffset", 5.0)
	v.SetDefault("teleop.userMessageSeconds", 3.0)
	v.SetDefault("teleop.shooterSetupSeconds", 2.2)
	v.SetDefault("teleop.shooterSetupSpeed", 0.4)

	v.SetDefault("vision.enabled", true)
	v.SetDefault("vision.address", ":1180")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlitePath", "./robot2014.db")
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", "5432")
	v.SetDefault("storage.username", "postgres")
	v.SetDefault("storage.password", "postgres")
	v.SetDefault("storage.database", "robot2014")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.protocol", "http")
	v.SetDefault("influx.host", "localhost")
	v.SetDefault("influx.port", "8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "robot-metrics")
	v.SetDefault("influx.backupPath", "./telemetry_backup.gz")

	v.SetDefault("graylog.enabled", false)
	v.SetDefault("graylog.address", "localhost:12201")
}

func tierDefaults(far, medium float64) map[string]any {
	return map[string]any{
		"farThreshold":    far,
		"mediumThreshold": medium,
		"farRatio":        1.0,
		"mediumRatio":     0.6,
		"nearRatio":       0.3,
	}
}

// Load reads robot.cfg.json from configDir and returns the populated
// configuration. A missing config file is not fatal: the defaults are
// returned so the robot can still drive with safe values.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("robot.cfg.json")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}
