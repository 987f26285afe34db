package routing

import (
	"fmt"

	"message-dispatcher/internal/common/errors"
)

// Router kinds recognised by BuildRouter.
const (
	KindSimple               = "simple"
	KindTransportToTransport = "transport_to_transport"
	KindToAddr               = "to_addr"
	KindFromAddrMultiplex    = "from_addr_multiplex"
	KindUserGrouping         = "user_grouping"
	KindContentKeyword       = "content_keyword"
)

// Config is the routing table loaded at startup. Router selects the variant;
// exactly the matching variant section must be present. The endpoint name
// sets are fixed for the life of the process.
type Config struct {
	Router         string   `yaml:"router"`
	DispatcherName string   `yaml:"dispatcher_name,omitempty"`
	TransportNames []string `yaml:"transport_names"`
	ExposedNames   []string `yaml:"exposed_names"`

	Simple               *SimpleConfig               `yaml:"simple,omitempty"`
	TransportToTransport *TransportToTransportConfig `yaml:"transport_to_transport,omitempty"`
	ToAddr               *ToAddrConfig               `yaml:"to_addr,omitempty"`
	FromAddrMultiplex    *FromAddrMultiplexConfig    `yaml:"from_addr_multiplex,omitempty"`
	UserGrouping         *UserGroupingConfig         `yaml:"user_grouping,omitempty"`
	ContentKeyword       *ContentKeywordConfig       `yaml:"content_keyword,omitempty"`
}

// SimpleConfig configures SimpleRouter. RouteMappings maps an inbound
// transport name to the ordered applications that receive its traffic.
// TransportMappings optionally remaps an outbound message's transport name to
// the actual transport endpoint, defaulting to identity.
type SimpleConfig struct {
	RouteMappings     map[string][]string `yaml:"route_mappings"`
	TransportMappings map[string]string   `yaml:"transport_mappings,omitempty"`
}

// TransportToTransportConfig configures TransportToTransportRouter.
// RouteMappings maps an inbound transport name to the transports its messages
// are republished on.
type TransportToTransportConfig struct {
	RouteMappings map[string][]string `yaml:"route_mappings"`
}

// ToAddrConfig configures ToAddrRouter. ToAddrMappings maps an application
// name to a regular expression matched against the message to_addr from
// position zero.
type ToAddrConfig struct {
	ToAddrMappings    map[string]string `yaml:"toaddr_mappings"`
	TransportMappings map[string]string `yaml:"transport_mappings,omitempty"`
}

// FromAddrMultiplexConfig configures FromAddrMultiplexRouter.
// FromAddrMappings maps a message from_addr to the single-address transport
// that owns it.
type FromAddrMultiplexConfig struct {
	FromAddrMappings map[string]string `yaml:"fromaddr_mappings"`
}

// UserGroupingConfig configures UserGroupingRouter. GroupMappings maps a
// group name to the application its users' messages go to. RouteMappings and
// TransportMappings carry the static behavior for inbound events and
// outbound messages.
type UserGroupingConfig struct {
	GroupMappings     map[string]string   `yaml:"group_mappings"`
	RouteMappings     map[string][]string `yaml:"route_mappings,omitempty"`
	TransportMappings map[string]string   `yaml:"transport_mappings,omitempty"`
}

// Rule is one content-keyword routing rule. App and Keyword are required.
// ToAddr and Prefix are optional constraints; a nil pointer means the
// constraint is absent, which is distinct from an empty string.
type Rule struct {
	App     string  `yaml:"app"`
	Keyword string  `yaml:"keyword"`
	ToAddr  *string `yaml:"to_addr,omitempty"`
	Prefix  *string `yaml:"prefix,omitempty"`
}

// ContentKeywordConfig configures ContentKeywordRouter. KeywordMappings is a
// convenience shorthand, one keyword per application, appended to Rules.
// TransportMappings maps an outbound message's from_addr to its transport.
// ExpireRoutingMemorySeconds bounds how long event correlation entries live.
type ContentKeywordConfig struct {
	Rules                      []Rule            `yaml:"rules,omitempty"`
	KeywordMappings            map[string]string `yaml:"keyword_mappings,omitempty"`
	FallbackApplication        string            `yaml:"fallback_application,omitempty"`
	TransportMappings          map[string]string `yaml:"transport_mappings"`
	ExpireRoutingMemorySeconds int               `yaml:"expire_routing_memory"`
}

// Validate checks the parts of the configuration shared by all variants.
// Variant constructors validate their own sections.
func (c *Config) Validate() error {
	if c.Router == "" {
		return errors.ConfigError("router kind is required")
	}
	switch c.Router {
	case KindSimple, KindTransportToTransport, KindToAddr,
		KindFromAddrMultiplex, KindUserGrouping, KindContentKeyword:
	default:
		return errors.ConfigError("unknown router kind: " + c.Router)
	}
	if NeedsStore(c.Router) && c.DispatcherName == "" {
		return errors.ConfigError(fmt.Sprintf("dispatcher_name is required for router %s", c.Router))
	}
	return nil
}
