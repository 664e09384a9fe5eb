package mqtt

import (
	"os"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// ListenerConfig describes one configured listener: type is "tcp" or
// "websocket", id names it for logs, address is the bind address.
type ListenerConfig struct {
	Type    string `yaml:"type"`
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

// Config is the YAML document the broker loads at startup.
type Config struct {
	Listeners    []ListenerConfig `yaml:"listeners"`
	Capabilities Capabilities     `yaml:"capabilities"`
}

// Options is the broker-wide configuration surface, derived from Config
// plus the defaults EnsureDefaults fills in for anything left zero.
type Options struct {
	Listeners    []ListenerConfig
	Capabilities Capabilities
}

// EnsureDefaults fills any zero-valued field with the broker's named
// defaults, mirroring the teacher's Options.ensureDefaults pattern: it
// clones the known-good default Capabilities and copies each zero field
// from that clone, then adds a single TCP listener on 0.0.0.0:1883 if
// none is configured.
func (o *Options) EnsureDefaults() {
	var defaults Capabilities
	if err := copier.Copy(&defaults, DefaultCapabilities()); err != nil {
		defaults = DefaultCapabilities()
	}

	if o.Capabilities.ReceiveMaximum == 0 {
		o.Capabilities.ReceiveMaximum = defaults.ReceiveMaximum
	}
	if o.Capabilities.MaximumPacketSize == 0 {
		o.Capabilities.MaximumPacketSize = defaults.MaximumPacketSize
	}

	if len(o.Listeners) == 0 {
		o.Listeners = []ListenerConfig{{Type: "tcp", ID: "tcp1", Address: "0.0.0.0:1883"}}
	}
}

// Load reads and unmarshals the YAML document at path into an Options
// with defaults applied. An empty path is not an error — it short
// circuits straight to EnsureDefaults, matching the teacher's
// OpenConfigFile behavior for an unset config flag.
func Load(path string) (*Options, error) {
	opts := &Options{}
	if path == "" {
		opts.EnsureDefaults()
		return opts, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	opts.Listeners = cfg.Listeners
	opts.Capabilities = cfg.Capabilities
	opts.EnsureDefaults()
	return opts, nil
}
