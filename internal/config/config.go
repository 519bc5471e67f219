package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StoreS3  = "s3"
	StoreDir = "dir"
)

// Config holds all configuration for the application. Values come from defaults,
// environment variables and command line flags, in increasing order of precedence.
type Config struct {
	APIKey      string
	APIURL      string
	HTTPTimeout time.Duration

	StartDate string
	EndDate   string

	Bucket          string
	IncomingFolder  string
	AnalyticsFolder string
	FilePrefix      string
	Store           string
	LocalBucketDir  string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3SSL           bool

	Dataset       string
	IncomingTable string
	Region        string
	WarehousePath string

	QueryDir   string
	QueryFiles []string

	TmpDir       string
	AnalyticsDir string
	Workers      int

	ListenPort string
	Schedule   string
	LogFormat  string
}

var defaults = map[string]any{
	"api_url":          "http://apiv3.apifootball.com/?action=get_events",
	"http_timeout":     60 * time.Second,
	"start_date":       "2022-08-27",
	"end_date":         "2023-05-29",
	"bucket":           "football-files",
	"incoming_folder":  "incoming",
	"analytics_folder": "analytics",
	"file_prefix":      "apifootball_get_events",
	"store":            StoreS3,
	"local_bucket_dir": "bucket",
	"s3_endpoint":      "",
	"s3_access_key":    "",
	"s3_secret_key":    "",
	"s3_ssl":           true,
	"dataset":          "football_api",
	"incoming_table":   "events",
	"region":           "US",
	"warehouse_path":   "warehouse.db",
	"query_dir":        "queries",
	"query_files":      "query_a.sql,query_b.sql,query_c.sql,query_d.sql",
	"tmp_dir":          "tmp",
	"analytics_dir":    "analytics",
	"workers":          1,
	"listen_port":      "8080",
	"schedule":         "",
	"log_format":       "json",
	"api_football_key": "",
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"start-date":     "start_date",
	"end-date":       "end_date",
	"workers":        "workers",
	"store":          "store",
	"bucket-dir":     "local_bucket_dir",
	"warehouse-path": "warehouse_path",
	"query-dir":      "query_dir",
	"listen-port":    "listen_port",
	"schedule":       "schedule",
	"log-format":     "log_format",
}

// RegisterFlags adds the overridable settings to flags. Flag defaults are empty; an unset
// flag never shadows the environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("start-date", "", "first date to extract (YYYY-MM-DD)")
	flags.String("end-date", "", "last date to extract, inclusive (YYYY-MM-DD)")
	flags.Int("workers", 0, "number of units processed concurrently per stage")
	flags.String("store", "", "object store backend: s3 or dir")
	flags.String("bucket-dir", "", "bucket directory when --store=dir")
	flags.String("warehouse-path", "", "DuckDB database file")
	flags.String("query-dir", "", "directory holding the query files")
	flags.String("listen-port", "", "HTTP port in serve mode")
	flags.String("schedule", "", "cron expression for scheduled runs in serve mode")
	flags.String("log-format", "", "json or console")
}

// LoadDotEnv loads environment variables from path. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		APIKey:          v.GetString("api_football_key"),
		APIURL:          v.GetString("api_url"),
		HTTPTimeout:     v.GetDuration("http_timeout"),
		StartDate:       v.GetString("start_date"),
		EndDate:         v.GetString("end_date"),
		Bucket:          v.GetString("bucket"),
		IncomingFolder:  v.GetString("incoming_folder"),
		AnalyticsFolder: v.GetString("analytics_folder"),
		FilePrefix:      v.GetString("file_prefix"),
		Store:           strings.ToLower(v.GetString("store")),
		LocalBucketDir:  v.GetString("local_bucket_dir"),
		S3Endpoint:      v.GetString("s3_endpoint"),
		S3AccessKey:     v.GetString("s3_access_key"),
		S3SecretKey:     v.GetString("s3_secret_key"),
		S3SSL:           v.GetBool("s3_ssl"),
		Dataset:         v.GetString("dataset"),
		IncomingTable:   v.GetString("incoming_table"),
		Region:          v.GetString("region"),
		WarehousePath:   v.GetString("warehouse_path"),
		QueryDir:        v.GetString("query_dir"),
		QueryFiles:      splitList(v.GetString("query_files")),
		TmpDir:          v.GetString("tmp_dir"),
		AnalyticsDir:    v.GetString("analytics_dir"),
		Workers:         v.GetInt("workers"),
		ListenPort:      v.GetString("listen_port"),
		Schedule:        v.GetString("schedule"),
		LogFormat:       v.GetString("log_format"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("API_FOOTBALL_KEY is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %v", c.HTTPTimeout)
	}
	switch c.Store {
	case StoreS3:
		if c.S3Endpoint == "" {
			return errors.New("S3_ENDPOINT is required when STORE=s3")
		}
	case StoreDir:
	default:
		return fmt.Errorf("unknown store %q, want %s or %s", c.Store, StoreS3, StoreDir)
	}
	if len(c.QueryFiles) == 0 {
		return errors.New("QUERY_FILES must name at least one file")
	}
	return nil
}

// S3Region translates the warehouse location into an S3 region name.
func (c *Config) S3Region() string {
	switch strings.ToUpper(c.Region) {
	case "US":
		return "us-east-1"
	case "EU":
		return "eu-west-1"
	default:
		return strings.ToLower(c.Region)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
