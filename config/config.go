package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type SystemConfig struct {
	Appid    string `yaml:"appid" envconfig:"CATALOGD_SYSTEM_APPID"`
	Location string `yaml:"location" envconfig:"CATALOGD_SYSTEM_LOCATION"`
	Workdir  string `yaml:"workdir" envconfig:"CATALOGD_SYSTEM_WORKDIR"`
	Debug    bool   `yaml:"debug" envconfig:"CATALOGD_SYSTEM_DEBUG"`
	SeedDemo bool   `yaml:"seed_demo" envconfig:"CATALOGD_SYSTEM_SEED_DEMO"`
}

type WebConfig struct {
	Host string `yaml:"host" envconfig:"CATALOGD_WEB_HOST"`
	Port int    `yaml:"port" envconfig:"CATALOGD_WEB_PORT"`
}

type DBConfig struct {
	Type     string `yaml:"type" envconfig:"CATALOGD_DB_TYPE"`
	Host     string `yaml:"host" envconfig:"CATALOGD_DB_HOST"`
	Port     int    `yaml:"port" envconfig:"CATALOGD_DB_PORT"`
	Name     string `yaml:"name" envconfig:"CATALOGD_DB_NAME"`
	User     string `yaml:"user" envconfig:"CATALOGD_DB_USER"`
	Passwd   string `yaml:"passwd" envconfig:"CATALOGD_DB_PASSWD"`
	MaxConn  int    `yaml:"max_conn" envconfig:"CATALOGD_DB_MAX_CONN"`
	IdleConn int    `yaml:"idle_conn" envconfig:"CATALOGD_DB_IDLE_CONN"`
	Debug    bool   `yaml:"debug" envconfig:"CATALOGD_DB_DEBUG"`
}

// StorageConfig points at an S3-compatible object store. Endpoint is
// optional; when empty the AWS default endpoint for Region is used.
// PublicBaseURL overrides public URL derivation for stores fronted by
// a CDN or reverse proxy.
type StorageConfig struct {
	Endpoint      string `yaml:"endpoint" envconfig:"CATALOGD_STORAGE_ENDPOINT"`
	Region        string `yaml:"region" envconfig:"CATALOGD_STORAGE_REGION"`
	AccessKey     string `yaml:"access_key" envconfig:"CATALOGD_STORAGE_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" envconfig:"CATALOGD_STORAGE_SECRET_KEY"`
	Bucket        string `yaml:"bucket" envconfig:"CATALOGD_STORAGE_BUCKET"`
	PublicBaseURL string `yaml:"public_base_url" envconfig:"CATALOGD_STORAGE_PUBLIC_BASE_URL"`
	PathStyle     bool   `yaml:"path_style" envconfig:"CATALOGD_STORAGE_PATH_STYLE"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" envconfig:"CATALOGD_LOGGER_MODE"`
	FileEnable bool   `yaml:"file_enable" envconfig:"CATALOGD_LOGGER_FILE_ENABLE"`
	Filename   string `yaml:"filename" envconfig:"CATALOGD_LOGGER_FILENAME"`
}

type AppConfig struct {
	System   SystemConfig  `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Storage  StorageConfig `yaml:"storage"`
	Logger   LoggerConfig  `yaml:"logger"`
}

var DefaultAppConfig = AppConfig{
	System: SystemConfig{
		Appid:    "catalogd",
		Location: "Asia/Shanghai",
		Workdir:  "/var/catalogd",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8100,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "catalogd",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Storage: StorageConfig{
		Region: "us-east-1",
		Bucket: "products",
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/catalogd/catalogd.log",
	},
}

// LoadConfig reads the YAML configuration file and applies environment
// overrides. A missing file is not an error; defaults plus environment
// are used instead.
func LoadConfig(cfile string) *AppConfig {
	appConfig := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, &appConfig); err != nil {
				panic(fmt.Sprintf("config file %s parse error: %v", cfile, err))
			}
		}
	}
	if err := envconfig.Process("catalogd", &appConfig); err != nil {
		panic(err)
	}
	return &appConfig
}
