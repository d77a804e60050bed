package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/telekom/das-schiff-policy-router/pkg/config"
	"github.com/telekom/das-schiff-policy-router/pkg/ipaddr"
	"github.com/telekom/das-schiff-policy-router/pkg/version"
	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

var simulatorLog = logrus.WithField("name", "route-simulator")

func main() {
	version.Get().Print(os.Args[0])
	var configFile string
	var packetsFile string
	flag.StringVar(&configFile, "config", "", "Path to the routing configuration. Falls back to POLICY_ROUTER_CONFIG.")
	flag.StringVar(&packetsFile, "packets", "", "Path to the simulated packets file (optional).")
	flag.Parse()

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(fmt.Errorf("error loading routing configuration: %w", err))
	}

	manager, err := config.BuildManager(cfg)
	if err != nil {
		log.Fatal(fmt.Errorf("error building routing tables: %w", err))
	}

	simulatorLog.WithField("configHash", cfg.Hash()).Info("built routing tables")

	for _, vrfID := range manager.VrfIDs() {
		table, err := manager.Table(vrfID)
		if err != nil {
			continue
		}
		fmt.Printf("VRF %d (%d routes)\n", vrfID, table.Len())
		table.WriteTable(os.Stdout)
	}

	if packetsFile == "" {
		return
	}

	packets, err := config.LoadPackets(packetsFile)
	if err != nil {
		log.Fatal(fmt.Errorf("error loading packets file: %w", err))
	}

	for _, packetConfig := range packets {
		simulate(manager, packetConfig)
	}
}

func simulate(manager *vrf.Manager, packetConfig config.PacketConfig) {
	pkt, err := config.BuildPacket(packetConfig)
	if err != nil {
		simulatorLog.WithError(err).Error("skipping malformed packet")
		return
	}

	packetLog := simulatorLog.WithFields(logrus.Fields{
		"vrf":      packetConfig.VRF,
		"src":      fmt.Sprintf("%s:%d", packetConfig.SrcIP, packetConfig.SrcPort),
		"dst":      fmt.Sprintf("%s:%d", packetConfig.DstIP, packetConfig.DstPort),
		"protocol": packetConfig.Protocol,
	})

	entries := manager.Lookup(packetConfig.VRF, pkt)
	if len(entries) == 0 {
		packetLog.Info("no matching routes")
		return
	}

	for _, entry := range entries {
		packetLog.WithFields(logrus.Fields{
			"priority": entry.Rule.Priority,
			"nextHop":  ipaddr.FormatAddress(entry.Attrs.NextHop),
			"admin":    entry.Attrs.AdminDistance,
		}).Info("matching route")
	}

	if selected, ok := manager.SelectEcmpPathUsingFlowHash(packetConfig.VRF, pkt); ok {
		packetLog.WithFields(logrus.Fields{
			"nextHop":        ipaddr.FormatAddress(selected.NextHop),
			"dscp":           selected.DSCP,
			"equalCostPaths": len(manager.GetEqualCostPaths(packetConfig.VRF, pkt)),
		}).Info("selected route")
	}
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfigFile(configFile)
	}
	return config.LoadConfig()
}
