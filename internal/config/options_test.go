package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wal-g/s3rm/internal/config"
	"github.com/wal-g/s3rm/internal/deletion"
	"github.com/wal-g/s3rm/internal/spatial"
)

func newTestViper(settings map[string]string) *viper.Viper {
	v := viper.New()
	config.SetDefaultValues(v)
	v.Set(config.BucketSetting, "bucket")
	v.Set(config.PrefixSetting, "/tiles/")
	for setting, value := range settings {
		v.Set(setting, value)
	}
	return v
}

func TestNewOptionsDefaults(t *testing.T) {
	options, err := config.NewOptions(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "default", options.Profile)
	assert.Equal(t, "bucket", options.Bucket)
	assert.Equal(t, "/tiles/", options.Prefix)
	assert.Equal(t, "tiles/", options.StorePrefix())
	assert.Equal(t, runtime.NumCPU(), options.Threads)
	assert.Equal(t, 0, options.ChunkSize)
	assert.False(t, options.Force)
	assert.Nil(t, options.Filter)
	assert.Equal(t, uint64(deletion.DefaultThrottleMaxRetries), options.ThrottleMaxRetries)
	assert.Equal(t, deletion.DefaultThrottleBackoff, options.ThrottleBackoff)
	assert.Equal(t, []string{"tiles/"}, options.TargetPrefixes())
}

func TestNewOptionsMissingRequired(t *testing.T) {
	v := viper.New()
	v.Set(config.BucketSetting, "bucket")

	_, err := config.NewOptions(v)
	require.Error(t, err)
	assert.True(t, errors.As(err, &config.ConfigurationError{}))
	assert.Contains(t, err.Error(), "--prefix")
}

func TestResolvePrefix(t *testing.T) {
	assert.Equal(t, "a/b/", config.ResolvePrefix("a/b/*"))
	assert.Equal(t, "a/b/", config.ResolvePrefix("a/b/"))
	assert.Equal(t, "a/b*", config.ResolvePrefix("a/b*"))
	assert.Equal(t, "", config.ResolvePrefix(""))
}

func TestNewOptionsValidation(t *testing.T) {
	testCases := []struct {
		name     string
		settings map[string]string
	}{
		{"zero threads", map[string]string{config.ThreadsSetting: "0"}},
		{"negative threads", map[string]string{config.ThreadsSetting: "-4"}},
		{"threads not a number", map[string]string{config.ThreadsSetting: "many"}},
		{"chunk size zero", map[string]string{config.ChunkSizeSetting: "0"}},
		{"chunk size too large", map[string]string{config.ChunkSizeSetting: "1001"}},
		{"negative max rps", map[string]string{config.MaxRPSSetting: "-1"}},
		{"bad throttle backoff", map[string]string{config.ThrottleBackoffSetting: "soon"}},
		{"negative throttle retries", map[string]string{config.ThrottleMaxRetriesSetting: "-1"}},
		{"bad path style", map[string]string{config.ForcePathStyleSetting: "sometimes"}},
		{"malformed bbox", map[string]string{
			config.PrefixSetting: "/1.0.0/layer/default/20200101/",
			config.BBoxSetting:   "2600000,1200000,2700000",
		}},
		{"bbox outside envelope", map[string]string{
			config.PrefixSetting: "/1.0.0/layer/default/20200101/",
			config.BBoxSetting:   "0,0,10,10",
		}},
		{"bbox with shallow prefix", map[string]string{
			config.PrefixSetting: "/1.0.0/layer/",
			config.BBoxSetting:   "2600000,1200000,2700000,1300000",
		}},
		{"bbox with unsupported srid", map[string]string{
			config.PrefixSetting: "/1.0.0/layer/default/20200101/1234/",
			config.BBoxSetting:   "2600000,1200000,2700000,1300000",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.NewOptions(newTestViper(tc.settings))
			require.Error(t, err)
			assert.True(t, errors.As(err, &config.ConfigurationError{}))
		})
	}
}

func TestNewOptionsOverrides(t *testing.T) {
	options, err := config.NewOptions(newTestViper(map[string]string{
		config.PrefixSetting:             "tiles/*",
		config.ThreadsSetting:            "8",
		config.ChunkSizeSetting:          "300",
		config.ForceSetting:              "true",
		config.MaxRPSSetting:             "3500",
		config.ThrottleMaxRetriesSetting: "2",
		config.ThrottleBackoffSetting:    "250ms",
		config.MaxPassesSetting:          "7",
		config.ForcePathStyleSetting:     "true",
		config.EndpointSetting:           "http://localhost:9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "tiles/", options.Prefix)
	assert.Equal(t, 8, options.Threads)
	assert.True(t, options.Force)
	assert.True(t, options.ForcePathStyle)
	assert.Equal(t, 3500.0, options.MaxRPS)

	poolConfig := options.PoolConfig()
	assert.Equal(t, 8, poolConfig.Workers)
	assert.Equal(t, uint64(2), poolConfig.ThrottleMaxRetries)
	assert.Equal(t, 250*time.Millisecond, poolConfig.ThrottleBackoff)

	driverConfig := options.DriverConfig()
	assert.Equal(t, []string{"tiles/"}, driverConfig.Prefixes)
	assert.Equal(t, 300, driverConfig.ChunkSize)
	assert.False(t, driverConfig.FixedChunkSize)
	assert.True(t, driverConfig.Force)
	assert.Equal(t, 7, driverConfig.MaxPasses)

	s3Config := options.S3Config()
	assert.Equal(t, "bucket", s3Config.Bucket)
	assert.Equal(t, "http://localhost:9000", s3Config.Endpoint)
	assert.True(t, s3Config.ForcePathStyle)
	assert.Equal(t, deletion.DefaultPageCap, s3Config.PageCap)
}

func TestNewOptionsBBox(t *testing.T) {
	options, err := config.NewOptions(newTestViper(map[string]string{
		config.PrefixSetting:    "/1.0.0/layer/default/20200101/",
		config.BBoxSetting:      "2600000,1200000,2700000,1300000",
		config.ChunkSizeSetting: "10",
	}))
	require.NoError(t, err)
	require.NotNil(t, options.Filter)

	assert.Equal(t, spatial.SupportedSRIDs, options.Filter.SRIDs)

	driverConfig := options.DriverConfig()
	assert.True(t, driverConfig.FixedChunkSize)
	assert.Len(t, driverConfig.Prefixes, len(spatial.SupportedSRIDs))
	assert.Equal(t, "1.0.0/layer/default/20200101/21781/", driverConfig.Prefixes[0])
}

func TestNewOptionsBBoxPinnedSRID(t *testing.T) {
	options, err := config.NewOptions(newTestViper(map[string]string{
		config.PrefixSetting: "/1.0.0/layer/default/20200101/2056/*",
		config.BBoxSetting:   "2600000,1200000,2700000,1300000",
	}))
	require.NoError(t, err)

	assert.Equal(t, []int{2056}, options.Filter.SRIDs)
	assert.Equal(t, []string{"1.0.0/layer/default/20200101/2056/"}, options.TargetPrefixes())
}
