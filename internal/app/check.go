package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"

	"gaswatch/internal/alerting"
	"gaswatch/internal/model"
)

type checkRow struct {
	key     string
	sample  model.GasSample
	tier    string
	fetched bool
	err     error
}

// Check performs a single fetch across all configured networks and prints
// the current fees as a table. It reuses the full fetch/extract pipeline but
// touches no history or alert state.
func (a *App) Check(ctx context.Context) error {
	source := a.newFeeSource()
	defer source.Close()

	rows := make([]checkRow, 0, len(a.Config.Networks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range a.Config.NetworkKeys() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			net := a.Config.Networks[key]
			row := checkRow{key: key}
			sample, err := source.Fetch(ctx, key, net)
			if err != nil {
				row.err = err
			} else {
				row.sample = sample
				row.fetched = true
				if tier, ok := alerting.Opportunity(sample, key, net); ok {
					row.tier = string(tier)
				}
			}
			mu.Lock()
			rows = append(rows, row)
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Network", "Block", "Base", "Safe (p25)", "Fast (p75)", "Opportunity"})

	for _, row := range rows {
		name := a.Config.Networks[row.key].Name
		if !row.fetched {
			t.AppendRow(table.Row{name, "-", "-", "-", "-", fmt.Sprintf("unavailable: %v", row.err)})
			continue
		}
		safe := "-"
		if v, ok := row.sample.FeeAt(model.P25); ok {
			safe = v.StringFixed(2)
		}
		fast := "-"
		if v, ok := row.sample.FeeAt(model.P75); ok {
			fast = v.StringFixed(2)
		}
		opportunity := "-"
		if row.tier != "" {
			opportunity = row.tier
		}
		t.AppendRow(table.Row{
			name,
			row.sample.BlockNumber,
			row.sample.BaseFee.StringFixed(2),
			safe,
			fast,
			opportunity,
		})
	}

	t.Render()
	return nil
}
