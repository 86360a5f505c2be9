package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config smartcane-relay 配置
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Device   DeviceConfig   `yaml:"device"`
	Line     LineConfig     `yaml:"line"`
	Alert    AlertConfig    `yaml:"alert"`
	Debounce DebounceConfig `yaml:"debounce"`
	Redis    RedisConfig    `yaml:"redis"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// DeviceConfig 设备接入配置
type DeviceConfig struct {
	Secret string `yaml:"secret"` // x-smartcane-key 共享密钥
}

// LineConfig LINE Messaging API 配置
type LineConfig struct {
	BaseURL            string        `yaml:"base_url"`
	ChannelAccessToken string        `yaml:"channel_access_token"`
	CaregiverID        string        `yaml:"caregiver_id"` // 接收跌倒提醒的用户 ID
	Timeout            time.Duration `yaml:"timeout"`
	ReplyGreeting      string        `yaml:"reply_greeting"` // webhook 回复内容
}

// AlertConfig 提醒文本配置
type AlertConfig struct {
	Timezone string `yaml:"timezone"`
}

// DebounceConfig 重复跌倒提醒抑制窗口（0 表示关闭）
type DebounceConfig struct {
	Window    time.Duration `yaml:"window"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// RedisConfig Redis配置（仅在启用 debounce 时使用）
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig MQTT 设备上报配置（默认关闭）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables, which win over the file.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	// 与 Worker secrets 同名
	cfg.Device.Secret = getEnv("WORKER_SECRET_KEY", cfg.Device.Secret)
	cfg.Line.ChannelAccessToken = getEnv("LINE_CHANNEL_ACCESS_TOKEN", cfg.Line.ChannelAccessToken)
	cfg.Line.CaregiverID = getEnv("LINE_CAREGIVER_ID", cfg.Line.CaregiverID)
	cfg.Line.BaseURL = getEnv("LINE_API_BASE_URL", cfg.Line.BaseURL)
	cfg.Line.Timeout = parseDuration(os.Getenv("LINE_TIMEOUT"), cfg.Line.Timeout)
	cfg.Line.ReplyGreeting = getEnv("REPLY_GREETING", cfg.Line.ReplyGreeting)
	if strings.TrimSpace(cfg.Line.ReplyGreeting) == "" {
		cfg.Line.ReplyGreeting = DefaultReplyGreeting
	}

	cfg.Alert.Timezone = getEnv("ALERT_TIMEZONE", cfg.Alert.Timezone)

	cfg.Debounce.Window = parseDuration(os.Getenv("DEBOUNCE_WINDOW"), cfg.Debounce.Window)
	cfg.Debounce.KeyPrefix = getEnv("DEBOUNCE_KEY_PREFIX", cfg.Debounce.KeyPrefix)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(os.Getenv("REDIS_DB"), cfg.Redis.DB)

	if v := os.Getenv("MQTT_ENABLED"); v != "" {
		cfg.MQTT.Enabled = v == "true"
	}
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.QoS = byte(parseInt(os.Getenv("MQTT_QOS"), int(cfg.MQTT.QoS)))

	if cfg.MQTT.QoS > 2 {
		return nil, fmt.Errorf("invalid MQTT QoS %d", cfg.MQTT.QoS)
	}
	if cfg.Debounce.Window < 0 {
		return nil, fmt.Errorf("invalid debounce window %s", cfg.Debounce.Window)
	}

	return cfg, nil
}

// Location 解析提醒时区，无法解析时退回 UTC+7
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Alert.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// DefaultReplyGreeting webhook 默认回复；LINE 拒绝空文本
const DefaultReplyGreeting = "สวัสดีค่ะ ระบบแจ้งเตือนการล้ม SmartCane ได้รับข้อความของคุณแล้ว"

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Line.BaseURL = "https://api.line.me"
	cfg.Line.Timeout = 10 * time.Second
	cfg.Line.ReplyGreeting = DefaultReplyGreeting

	cfg.Alert.Timezone = "Asia/Bangkok"

	cfg.Debounce.KeyPrefix = "smartcane:debounce:"

	cfg.Redis.Addr = "localhost:6379"

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "smartcane-relay"
	cfg.MQTT.Topic = "smartcane/+/telemetry"
	cfg.MQTT.QoS = 1
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
