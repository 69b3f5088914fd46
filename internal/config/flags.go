package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flagDefinition struct {
	setting   string
	name      string
	shorthand string
	usage     string
	boolean   bool
}

var flagDefinitions = []flagDefinition{
	{setting: ProfileSetting, name: "profile", usage: "AWS profile"},
	{setting: BucketSetting, name: "bucket-name", usage: "bucket name (required)"},
	{setting: PrefixSetting, name: "prefix",
		usage: "prefix relative to the bucket base path, a trailing '/*' is accepted (required)"},
	{setting: ThreadsSetting, name: "threads-number", shorthand: "n",
		usage: "number of parallel workers, default: number of CPUs"},
	{setting: ChunkSizeSetting, name: "chunk-size", shorthand: "s",
		usage: "number of keys per delete request, from 1 to 1000, default: keys spread evenly over the workers"},
	{setting: ForceSetting, name: "force", shorthand: "f", boolean: true,
		usage: "delete without asking for confirmation"},
	{setting: BBoxSetting, name: "bbox",
		usage: "bounding box minx,miny,maxx,maxy in EPSG:2056, restricts the deletion to tile prefixes"},
	{setting: MaxRPSSetting, name: "max-rps", usage: "maximum delete requests per second, 0 means unlimited"},
	{setting: ThrottleMaxRetriesSetting, name: "throttle-max-retries",
		usage: "retries of a batch throttled by the store"},
	{setting: ThrottleBackoffSetting, name: "throttle-backoff",
		usage: "initial wait before retrying a throttled batch, doubled on every retry"},
	{setting: MaxPassesSetting, name: "max-passes", usage: "maximum listing passes per prefix, 0 means unlimited"},
	{setting: StrictSetting, name: "strict", boolean: true,
		usage: "exit with an error when any key could not be deleted"},
}

var flagNames = func() map[string]string {
	names := make(map[string]string, len(flagDefinitions))
	for _, definition := range flagDefinitions {
		names[definition.setting] = definition.name
	}
	return names
}()

// AddFlags defines the command line flags and binds each of them to its setting.
func AddFlags(flags *pflag.FlagSet, config *viper.Viper) {
	for _, definition := range flagDefinitions {
		if definition.boolean {
			flags.BoolP(definition.name, definition.shorthand, false, definition.usage)
		} else {
			flags.StringP(definition.name, definition.shorthand, "", definition.usage)
		}
		_ = config.BindPFlag(definition.setting, flags.Lookup(definition.name))
	}
}
