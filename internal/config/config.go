package config

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/wal-g/tracelog"
)

const (
	ProfileSetting            = "S3RM_PROFILE"
	BucketSetting             = "S3RM_BUCKET"
	PrefixSetting             = "S3RM_PREFIX"
	ThreadsSetting            = "S3RM_THREADS"
	ChunkSizeSetting          = "S3RM_CHUNK_SIZE"
	ForceSetting              = "S3RM_FORCE"
	BBoxSetting               = "S3RM_BBOX"
	MaxRPSSetting             = "S3RM_MAX_RPS"
	ThrottleMaxRetriesSetting = "S3RM_THROTTLE_MAX_RETRIES"
	ThrottleBackoffSetting    = "S3RM_THROTTLE_BACKOFF"
	MaxPassesSetting          = "S3RM_MAX_PASSES"
	StrictSetting             = "S3RM_STRICT"
	LogLevelSetting           = "S3RM_LOG_LEVEL"
	StatsdAddressSetting      = "S3RM_STATSD_ADDRESS"
	StatsdExtraTagsSetting    = "S3RM_STATSD_EXTRA_TAGS"

	EndpointSetting       = "AWS_ENDPOINT"
	RegionSetting         = "AWS_REGION"
	ForcePathStyleSetting = "AWS_S3_FORCE_PATH_STYLE"
	S3MaxRetriesSetting   = "S3RM_S3_MAX_RETRIES"

	AccessKeyIDSetting     = "AWS_ACCESS_KEY_ID"
	SecretAccessKeySetting = "AWS_SECRET_ACCESS_KEY"
	SessionTokenSetting    = "AWS_SESSION_TOKEN"
)

var (
	CfgFile string

	defaultConfigValues = map[string]string{
		ProfileSetting:            "default",
		ForceSetting:              "false",
		MaxRPSSetting:             "0",
		ThrottleMaxRetriesSetting: "10",
		ThrottleBackoffSetting:    "5s",
		MaxPassesSetting:          "0",
		StrictSetting:             "false",
		LogLevelSetting:           tracelog.NormalLogLevel,
		S3MaxRetriesSetting:       "3",
	}

	AllowedSettings = map[string]bool{
		ProfileSetting:            true,
		BucketSetting:             true,
		PrefixSetting:             true,
		ThreadsSetting:            true,
		ChunkSizeSetting:          true,
		ForceSetting:              true,
		BBoxSetting:               true,
		MaxRPSSetting:             true,
		ThrottleMaxRetriesSetting: true,
		ThrottleBackoffSetting:    true,
		MaxPassesSetting:          true,
		StrictSetting:             true,
		LogLevelSetting:           true,
		StatsdAddressSetting:      true,
		StatsdExtraTagsSetting:    true,

		EndpointSetting:       true,
		RegionSetting:         true,
		ForcePathStyleSetting: true,
		S3MaxRetriesSetting:   true,

		AccessKeyIDSetting:     true,
		SecretAccessKeySetting: true,
		SessionTokenSetting:    true,
	}

	RequiredSettings = map[string]bool{
		BucketSetting: true,
		PrefixSetting: true,
	}

	secretSettings = map[string]bool{
		SecretAccessKeySetting: true,
		SessionTokenSetting:    true,
	}
)

func isAllowedSetting(setting string, allowedSettings map[string]bool) (exists bool) {
	_, exists = allowedSettings[setting]
	return
}

// InitConfig reads config file and ENV variables if set.
func InitConfig() {
	var globalViper = viper.GetViper()
	globalViper.AutomaticEnv() // read in environment variables that match
	SetDefaultValues(globalViper)
	ReadConfigFromFile(globalViper, CfgFile)
	CheckAllowedSettings(globalViper)

	bindAWSSettingsToEnv(globalViper)
}

// ReadConfigFromFile read config to the viper instance
func ReadConfigFromFile(config *viper.Viper, configFile string) {
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		usr, err := user.Current()
		if err != nil {
			tracelog.WarningLogger.Printf("Failed to find home directory, no config file is read: %v", err)
			return
		}

		// Search config in home directory with name ".s3rm" (without extension).
		config.AddConfigPath(usr.HomeDir)
		config.SetConfigName(".s3rm")
	}

	// If a config file is found, read it in.
	err := config.ReadInConfig()
	if err == nil {
		tracelog.DebugLogger.Println("Using config file:", config.ConfigFileUsed())
	} else if config.ConfigFileUsed() != "" {
		// Config file is found, but parsing failed
		tracelog.WarningLogger.Printf("Failed to parse config file %s. %s.", config.ConfigFileUsed(), err)
	}
}

// SetDefaultValues set default settings to the viper instance
func SetDefaultValues(config *viper.Viper) {
	for setting, value := range defaultConfigValues {
		config.SetDefault(setting, value)
	}
}

// CheckAllowedSettings warnings if a viper instance's setting not allowed
func CheckAllowedSettings(config *viper.Viper) {
	for k := range config.AllSettings() {
		k = strings.ToUpper(k)
		if !isAllowedSetting(k, AllowedSettings) {
			tracelog.WarningLogger.Println(k + " is unknown")
		}
	}
}

// AssertRequiredSettingsSet fails when a required setting has neither a flag, a variable nor a config entry.
func AssertRequiredSettingsSet(config *viper.Viper) error {
	for setting, required := range RequiredSettings {
		if required && config.GetString(setting) == "" {
			return NewConfigurationError("required setting %s is not set, use the --%s flag or the %s variable",
				setting, flagNames[setting], setting)
		}
	}
	return nil
}

func ConfigureLogging(config *viper.Viper) error {
	if logLevel := config.GetString(LogLevelSetting); logLevel != "" {
		return tracelog.UpdateLogLevel(logLevel)
	}
	return nil
}

// LogSettings shows the compiled settings in DEVEL logging mode.
func LogSettings(config *viper.Viper) {
	var buff bytes.Buffer
	buff.WriteString("--- COMPILED SETTINGS ---\n")

	var keys []string
	for k := range config.AllSettings() {
		keys = append(keys, strings.ToUpper(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := config.GetString(k)
		// leave secret settings empty if they are empty, otherwise hide their actual value
		if secretSettings[k] && val != "" {
			val = "--HIDDEN--"
		}
		fmt.Fprintf(&buff, "\t%s=%s\n", k, val)
	}

	tracelog.DebugLogger.Print(buff.String())
}

// The AWS SDK reads credentials from the environment only,
// so credentials found in the config file are exported to it.
func bindAWSSettingsToEnv(config *viper.Viper) {
	for _, setting := range []string{AccessKeyIDSetting, SecretAccessKeySetting, SessionTokenSetting} {
		val := config.GetString(setting)
		if val == "" || os.Getenv(setting) != "" {
			continue
		}
		err := os.Setenv(setting, val)
		if err != nil {
			tracelog.ErrorLogger.FatalOnError(errors.Wrap(err, "Failed to bind config to env variable"))
		}
	}
}
