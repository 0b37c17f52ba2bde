package source

import (
	"fmt"
	"sort"

	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

// builders maps source names to their config constructors.
var builders = map[string]func() pipeline.SourceConfig{
	"ema":  EMA,
	"fda":  FDA,
	"pmda": PMDA,
	"who":  WHO,
}

// Names returns the registered source names in stable order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns the config for a registered source.
func ByName(name string) (pipeline.SourceConfig, error) {
	build, ok := builders[name]
	if !ok {
		return pipeline.SourceConfig{}, fmt.Errorf("unknown source %q, registered: %v", name, Names())
	}
	return build(), nil
}

// All returns every registered source config in stable order.
func All() []pipeline.SourceConfig {
	configs := make([]pipeline.SourceConfig, 0, len(builders))
	for _, name := range Names() {
		cfg, _ := ByName(name)
		configs = append(configs, cfg)
	}
	return configs
}
