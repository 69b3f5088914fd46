package config

import (
	"math"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wal-g/s3rm/internal/deletion"
	"github.com/wal-g/s3rm/internal/spatial"
	"github.com/wal-g/s3rm/internal/storages/s3"
	"github.com/wal-g/tracelog"
)

// Options is the validated configuration of one run.
type Options struct {
	Profile   string
	Bucket    string
	Prefix    string
	Threads   int
	ChunkSize int
	Force     bool
	Filter    *spatial.Filter

	MaxRPS             float64
	ThrottleMaxRetries uint64
	ThrottleBackoff    time.Duration
	MaxPasses          int
	Strict             bool

	Endpoint       string
	Region         string
	ForcePathStyle bool
	S3MaxRetries   int
	Debug          bool
}

// NewOptions validates the settings collected by viper from flags, environment and config file.
func NewOptions(config *viper.Viper) (*Options, error) {
	if err := AssertRequiredSettingsSet(config); err != nil {
		return nil, err
	}

	options := &Options{
		Profile:  config.GetString(ProfileSetting),
		Bucket:   config.GetString(BucketSetting),
		Prefix:   ResolvePrefix(config.GetString(PrefixSetting)),
		Force:    config.GetBool(ForceSetting),
		Strict:   config.GetBool(StrictSetting),
		Endpoint: config.GetString(EndpointSetting),
		Region:   config.GetString(RegionSetting),
		Debug:    config.GetString(LogLevelSetting) == tracelog.DevelLogLevel,
	}

	var err error
	if options.Threads, err = parseInt(config, ThreadsSetting, runtime.NumCPU(), 1, math.MaxInt32); err != nil {
		return nil, err
	}
	if options.ChunkSize, err = parseInt(config, ChunkSizeSetting, 0, 1, deletion.MaxBatchSize); err != nil {
		return nil, err
	}
	if options.MaxPasses, err = parseInt(config, MaxPassesSetting, 0, 0, math.MaxInt32); err != nil {
		return nil, err
	}
	if options.S3MaxRetries, err = parseInt(config, S3MaxRetriesSetting, s3.MaxRetriesDefault, 0, 100); err != nil {
		return nil, err
	}
	throttleMaxRetries, err := parseInt(config, ThrottleMaxRetriesSetting, deletion.DefaultThrottleMaxRetries, 0,
		math.MaxInt32)
	if err != nil {
		return nil, err
	}
	options.ThrottleMaxRetries = uint64(throttleMaxRetries)

	if options.MaxRPS, err = parseNonNegativeFloat(config, MaxRPSSetting, 0); err != nil {
		return nil, err
	}
	if options.ThrottleBackoff, err = parseDuration(config, ThrottleBackoffSetting, deletion.DefaultThrottleBackoff); err != nil {
		return nil, err
	}
	if raw := config.GetString(ForcePathStyleSetting); raw != "" {
		if options.ForcePathStyle, err = strconv.ParseBool(raw); err != nil {
			return nil, WrapConfigurationError(err, "failed to parse %s", ForcePathStyleSetting)
		}
	}

	if options.Filter, err = newFilter(config, options.Prefix); err != nil {
		return nil, err
	}
	return options, nil
}

// ResolvePrefix turns a trailing "/*" into "/", the store has no wildcard support.
func ResolvePrefix(prefix string) string {
	if strings.HasSuffix(prefix, "/*") {
		return strings.TrimSuffix(prefix, "*")
	}
	return prefix
}

// StorePrefix is the prefix as the store expects it, without a leading slash.
func (options *Options) StorePrefix() string {
	return strings.TrimLeft(options.Prefix, "/")
}

// TargetPrefixes lists the prefixes deleted one after another.
func (options *Options) TargetPrefixes() []string {
	if options.Filter != nil {
		return options.Filter.Prefixes(options.StorePrefix())
	}
	return []string{options.StorePrefix()}
}

func (options *Options) S3Config() s3.Config {
	return s3.Config{
		Profile:        options.Profile,
		Bucket:         options.Bucket,
		Region:         options.Region,
		Endpoint:       options.Endpoint,
		ForcePathStyle: options.ForcePathStyle,
		MaxRetries:     options.S3MaxRetries,
		PageCap:        deletion.DefaultPageCap,
		Debug:          options.Debug,
	}
}

func (options *Options) PoolConfig() deletion.PoolConfig {
	poolConfig := deletion.NewPoolConfig(options.Threads)
	poolConfig.ThrottleBackoff = options.ThrottleBackoff
	poolConfig.ThrottleMaxRetries = options.ThrottleMaxRetries
	return poolConfig
}

// DriverConfig keeps batches at their maximum size when a spatial filter is set.
func (options *Options) DriverConfig() deletion.DriverConfig {
	return deletion.DriverConfig{
		Prefixes:       options.TargetPrefixes(),
		ChunkSize:      options.ChunkSize,
		FixedChunkSize: options.Filter != nil,
		Force:          options.Force,
		MaxPasses:      options.MaxPasses,
	}
}

func newFilter(config *viper.Viper, prefix string) (*spatial.Filter, error) {
	rawBBox := config.GetString(BBoxSetting)
	if rawBBox == "" {
		return nil, nil
	}

	bbox, err := spatial.ParseBBox(rawBBox)
	if err != nil {
		return nil, WrapConfigurationError(err, "invalid %s", BBoxSetting)
	}
	srids, err := spatial.ResolveSRIDs(prefix)
	if err != nil {
		return nil, WrapConfigurationError(err, "invalid prefix for a bbox deletion")
	}

	return &spatial.Filter{BBox: bbox, SRIDs: srids}, nil
}

func parseInt(config *viper.Viper, setting string, defaultValue, min, max int) (int, error) {
	raw := strings.TrimSpace(config.GetString(setting))
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapConfigurationError(err, "%s must be an integer, got '%s'", setting, raw)
	}
	if value < min || value > max {
		return 0, NewConfigurationError("%s must be between %d and %d, got %d", setting, min, max, value)
	}
	return value, nil
}

func parseNonNegativeFloat(config *viper.Viper, setting string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(config.GetString(setting))
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) {
		return 0, NewConfigurationError("%s must be a number, got '%s'", setting, raw)
	}
	if value < 0 {
		return 0, NewConfigurationError("%s must not be negative, got %g", setting, value)
	}
	return value, nil
}

func parseDuration(config *viper.Viper, setting string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(config.GetString(setting))
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, WrapConfigurationError(err, "%s must be a duration like 5s, got '%s'", setting, raw)
	}
	if value <= 0 {
		return 0, NewConfigurationError("%s must be positive, got %v", setting, value)
	}
	return value, nil
}
