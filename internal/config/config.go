package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Evse struct {
	Id        int    `yaml:"id"`
	PhaseType string `yaml:"phase_type" env-default:"AC"`
}

type Config struct {
	IsDebug  *bool  `yaml:"is_debug"`
	TimeZone string `yaml:"time_zone" env-default:"UTC"`
	Station  struct {
		Id              string `yaml:"id" env:"STATION_ID" env-default:"CS001"`
		Vendor          string `yaml:"vendor" env-default:"evstation"`
		Model           string `yaml:"model" env-default:"AC22"`
		SerialNumber    string `yaml:"serial_number" env-default:""`
		FirmwareVersion string `yaml:"firmware_version" env-default:""`
		Evses           []Evse `yaml:"evses"`
	} `yaml:"station"`
	Csms struct {
		Url               string        `yaml:"url" env:"CSMS_URL" env-default:"ws://localhost:9000/ocpp"`
		SubProtocol       string        `yaml:"sub_protocol" env-default:"ocpp2.0.1"`
		Password          string        `yaml:"password" env:"CSMS_PASSWORD" env-default:""`
		BackoffInitial    time.Duration `yaml:"backoff_initial" env-default:"1s"`
		BackoffMax        time.Duration `yaml:"backoff_max" env-default:"60s"`
		HeartbeatInterval int           `yaml:"heartbeat_interval" env-default:"300"`
	} `yaml:"csms"`
	Dispatch struct {
		MessageTimeout      time.Duration `yaml:"message_timeout" env-default:"30s"`
		TransactionAttempts int           `yaml:"transaction_attempts" env-default:"3"`
		RetryInterval       time.Duration `yaml:"retry_interval" env-default:"10s"`
		QueueAllMessages    bool          `yaml:"queue_all_messages" env-default:"false"`
	} `yaml:"dispatch"`
	SmartCharging struct {
		RateUnits                 string  `yaml:"rate_units" env-default:"A,W"`
		SupplyPhases              int     `yaml:"supply_phases" env-default:"3"`
		ACPhaseSwitchingSupported bool    `yaml:"ac_phase_switching_supported" env-default:"false"`
		DefaultLimitAmps          float64 `yaml:"default_limit_amps" env-default:"48"`
		DefaultLimitWatts         float64 `yaml:"default_limit_watts" env-default:"33120"`
		DefaultNumberPhases       int     `yaml:"default_number_phases" env-default:"3"`
		SupplyVoltage             float64 `yaml:"supply_voltage" env-default:"230"`
	} `yaml:"smart_charging"`
	DeviceModel struct {
		Path string `yaml:"path" env-default:""`
	} `yaml:"device_model"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"evstation"`
	} `yaml:"mongo"`
	Mqtt struct {
		Enabled     bool   `yaml:"enabled" env-default:"false"`
		Broker      string `yaml:"broker" env-default:"tcp://localhost:1883"`
		ClientId    string `yaml:"client_id" env-default:"evstation"`
		Username    string `yaml:"username" env-default:""`
		Password    string `yaml:"password" env-default:""`
		TopicPrefix string `yaml:"topic_prefix" env-default:"evstation"`
		Qos         byte   `yaml:"qos" env-default:"1"`
	} `yaml:"mqtt"`
	Api struct {
		Enabled bool   `yaml:"enabled" env-default:"true"`
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"8080"`
	} `yaml:"api"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port    string `yaml:"port" env-default:"9100"`
	} `yaml:"metrics"`
}

var instance *Config
var once sync.Once

func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		log.Println("reading config", path)
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			log.Println(desc)
			log.Println(err)
			instance = nil
		}
	})
	return instance, err
}

func (c *Config) Debug() bool {
	return c.IsDebug != nil && *c.IsDebug
}
