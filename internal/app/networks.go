package app

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Networks prints a summary table of the configured network descriptors.
func (a *App) Networks() error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Network", "Chain ID", "L2", "Endpoints", "Thresholds (Gwei)", "Fast Alerts"})

	for _, key := range a.Config.NetworkKeys() {
		net := a.Config.Networks[key]

		tiers := make([]string, 0, len(net.Thresholds))
		for tier, threshold := range net.Thresholds {
			tiers = append(tiers, fmt.Sprintf("%s=%g", tier, threshold))
		}
		sort.Strings(tiers)

		fastAlerts := "on"
		if net.DisableFastAlerts {
			fastAlerts = "off"
		}

		t.AppendRow(table.Row{
			net.Name,
			net.ChainID,
			net.IsL2,
			strings.Join(net.RPCURLs, "\n"),
			strings.Join(tiers, ", "),
			fastAlerts,
		})
	}

	t.Render()

	fmt.Printf("\nCheck interval: %s, alert cooldown: %s, retention: %s\n",
		a.Config.Monitoring.CheckInterval,
		a.Config.Monitoring.AlertCooldown,
		a.Config.Monitoring.Retention,
	)
	return nil
}
