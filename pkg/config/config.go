// Package config loads the YAML description of the VRF routing tables
// and of the packets fed to the simulator.
package config

import (
	"fmt"
	"os"

	"github.com/cnf/structhash"
	"gopkg.in/yaml.v2"

	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
	"github.com/telekom/das-schiff-policy-router/pkg/route"
	"github.com/telekom/das-schiff-policy-router/pkg/routingtable"
	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

var defaultConfigFile = "/opt/policy-router/config.yaml"

// Config is the root of the routing configuration file.
type Config struct {
	VRFs []VRFConfig `yaml:"vrfs"`
}

// VRFConfig holds the routes of one VRF.
type VRFConfig struct {
	ID     uint32        `yaml:"id"`
	Name   string        `yaml:"name"`
	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig is one route entry. Prefix uses CIDR notation; Match is
// optional and defaults to a match-all rule.
type RouteConfig struct {
	Prefix         string       `yaml:"prefix"`
	NextHop        string       `yaml:"nextHop"`
	Priority       uint32       `yaml:"priority"`
	AdminDistance  uint8        `yaml:"adminDistance"`
	LocalPref      uint32       `yaml:"localPref"`
	MED            uint32       `yaml:"med"`
	ASPath         []uint32     `yaml:"asPath"`
	Tag            uint16       `yaml:"tag"`
	Protocol       string       `yaml:"protocol"`
	Inactive       bool         `yaml:"inactive"`
	DSCP           uint8        `yaml:"dscp"`
	RateLimitBps   uint32       `yaml:"rateLimitBps"`
	BurstSizeBytes uint32       `yaml:"burstSizeBytes"`
	Match          *MatchConfig `yaml:"match"`
}

// MatchConfig mirrors the policy rule fields. Absent fields stay
// wildcards.
type MatchConfig struct {
	SrcPrefix string `yaml:"srcPrefix"`
	DstPrefix string `yaml:"dstPrefix"`
	SrcPort   uint16 `yaml:"srcPort"`
	DstPort   uint16 `yaml:"dstPort"`
	Protocol  uint8  `yaml:"protocol"`
	ToS       uint8  `yaml:"tos"`
	FlowLabel uint32 `yaml:"flowLabel"`
}

// PacketConfig describes one simulated packet.
type PacketConfig struct {
	VRF       uint32 `yaml:"vrf"`
	SrcIP     string `yaml:"srcIP"`
	DstIP     string `yaml:"dstIP"`
	SrcPort   uint16 `yaml:"srcPort"`
	DstPort   uint16 `yaml:"dstPort"`
	Protocol  uint8  `yaml:"protocol"`
	ToS       uint8  `yaml:"tos"`
	FlowLabel uint32 `yaml:"flowLabel"`
}

// LoadConfig reads the routing configuration from
// /opt/policy-router/config.yaml, overridable with the
// POLICY_ROUTER_CONFIG environment variable.
func LoadConfig() (*Config, error) {
	configFile := defaultConfigFile
	if val := os.Getenv("POLICY_ROUTER_CONFIG"); val != "" {
		configFile = val
	}
	return LoadConfigFile(configFile)
}

// LoadConfigFile reads the routing configuration from the given path.
func LoadConfigFile(path string) (*Config, error) {
	read, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	config := &Config{}
	if err := yaml.Unmarshal(read, config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file: %w", err)
	}
	return config, nil
}

// LoadPackets reads a list of simulated packets from the given path.
func LoadPackets(path string) ([]PacketConfig, error) {
	read, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading packets file: %w", err)
	}
	var packets []PacketConfig
	if err := yaml.Unmarshal(read, &packets); err != nil {
		return nil, fmt.Errorf("error unmarshalling packets file: %w", err)
	}
	return packets, nil
}

// Hash returns a stable fingerprint of the configuration, used to tell
// table generations apart in logs and metrics.
func (c *Config) Hash() string {
	return fmt.Sprintf("%x", structhash.Sha1(c, 1))
}

// BuildManager constructs the VRF manager described by the
// configuration.
func BuildManager(c *Config) (*vrf.Manager, error) {
	manager := vrf.NewManager()
	for _, vrfConfig := range c.VRFs {
		for _, routeConfig := range vrfConfig.Routes {
			prefix, prefixLen, err := ipaddr.ParseCIDR(routeConfig.Prefix)
			if err != nil {
				return nil, fmt.Errorf("VRF %d: %w", vrfConfig.ID, err)
			}
			rule, err := buildRule(routeConfig)
			if err != nil {
				return nil, fmt.Errorf("VRF %d prefix %s: %w", vrfConfig.ID, routeConfig.Prefix, err)
			}
			attrs, err := buildAttributes(routeConfig)
			if err != nil {
				return nil, fmt.Errorf("VRF %d prefix %s: %w", vrfConfig.ID, routeConfig.Prefix, err)
			}
			if err := manager.AddRoute(vrfConfig.ID, ipaddr.FormatAddress(prefix), prefixLen, rule, attrs); err != nil {
				return nil, fmt.Errorf("VRF %d: %w", vrfConfig.ID, err)
			}
		}
	}
	return manager, nil
}

// BuildPacket converts a simulated packet description into the
// classification tuple used by the routing table.
func BuildPacket(p PacketConfig) (routingtable.PacketInfo, error) {
	pkt := routingtable.PacketInfo{
		SrcPort:   p.SrcPort,
		DstPort:   p.DstPort,
		Protocol:  p.Protocol,
		ToS:       p.ToS,
		FlowLabel: p.FlowLabel,
	}

	var err error
	if p.SrcIP != "" {
		if pkt.SrcIP, err = ipaddr.ParseAddress(p.SrcIP); err != nil {
			return routingtable.PacketInfo{}, err
		}
	}
	if pkt.DstIP, err = ipaddr.ParseAddress(p.DstIP); err != nil {
		return routingtable.PacketInfo{}, err
	}
	return pkt, nil
}

func buildRule(r RouteConfig) (routingtable.PolicyRule, error) {
	rule := routingtable.DefaultRule()
	if r.Priority != 0 {
		rule.Priority = r.Priority
	}
	if r.Match == nil {
		return rule, nil
	}

	var err error
	if r.Match.SrcPrefix != "" {
		if rule.SrcPrefix, rule.SrcPrefixLen, err = ipaddr.ParseCIDR(r.Match.SrcPrefix); err != nil {
			return routingtable.PolicyRule{}, err
		}
	}
	if r.Match.DstPrefix != "" {
		if rule.DstPrefix, rule.DstPrefixLen, err = ipaddr.ParseCIDR(r.Match.DstPrefix); err != nil {
			return routingtable.PolicyRule{}, err
		}
	}
	rule.SrcPort = r.Match.SrcPort
	rule.DstPort = r.Match.DstPort
	rule.Protocol = r.Match.Protocol
	rule.ToS = r.Match.ToS
	rule.FlowLabel = r.Match.FlowLabel
	return rule, nil
}

func buildAttributes(r RouteConfig) (routingtable.RouteAttributes, error) {
	attrs := routingtable.DefaultAttributes()

	var err error
	if attrs.NextHop, err = ipaddr.ParseAddress(r.NextHop); err != nil {
		return routingtable.RouteAttributes{}, err
	}
	if r.AdminDistance != 0 {
		attrs.AdminDistance = r.AdminDistance
	}
	if r.LocalPref != 0 {
		attrs.LocalPref = r.LocalPref
	}
	attrs.MED = r.MED
	attrs.ASPath = r.ASPath
	attrs.Tag = r.Tag
	attrs.Protocol = route.GetProtocolNumber(r.Protocol)
	attrs.Active = !r.Inactive
	attrs.DSCP = r.DSCP
	attrs.RateLimitBps = r.RateLimitBps
	attrs.BurstSizeBytes = r.BurstSizeBytes
	return attrs, nil
}
