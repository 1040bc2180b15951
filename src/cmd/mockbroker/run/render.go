package run

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnSeparator("")
	return table
}

func RenderSnapshots(out io.Writer, snapshots []*models.Snapshot) {
	p := message.NewPrinter(language.English)
	table := newTable(out, []string{"Symbol", "Time", "Open", "High", "Low", "Close", "Volume", "Day Volume", "Change", "Source"})

	for _, s := range snapshots {
		table.Append([]string{
			s.Symbol,
			s.Timestamp.Format(time.DateTime),
			p.Sprintf("%.2f", s.Open),
			p.Sprintf("%.2f", s.High),
			p.Sprintf("%.2f", s.Low),
			p.Sprintf("%.2f", s.Close),
			p.Sprintf("%.0f", s.Volume),
			p.Sprintf("%.0f", s.TotalVolume),
			fmt.Sprintf("%+.2f%%", s.ChangeRate),
			string(s.Source),
		})
	}

	table.Render()
}

func RenderSummary(out io.Writer, summary *models.AccountSummary) {
	p := message.NewPrinter(language.English)

	p.Fprintf(out, "Account:  %s\n", summary.AccountID)
	p.Fprintf(out, "Mock now: %s (x%v)\n", summary.Clock.MockNow.Format(time.DateTime), summary.PlaybackSpeed)
	p.Fprintf(out, "Balance:  $%.2f\n", summary.Balance)
	p.Fprintf(out, "Equity:   $%.2f\n", summary.Equity)
	p.Fprintf(out, "Orders:   %d open, %d filled\n", summary.OpenOrders, summary.FilledOrders)

	table := newTable(out, []string{"Symbol", "Quantity", "Avg Cost", "Notional"})
	for _, position := range summary.Positions {
		table.Append([]string{
			position.Symbol,
			p.Sprintf("%d", position.Quantity),
			p.Sprintf("$%.2f", position.AvgCost),
			p.Sprintf("$%.2f", position.Notional),
		})
	}

	table.Render()
}

func RenderSpeeds(out io.Writer, speeds []float64, current float64) {
	table := newTable(out, []string{"Speed", "Mock time per real minute", "Default"})

	for _, speed := range speeds {
		isDefault := ""
		if speed == current {
			isDefault = "*"
		}

		table.Append([]string{
			"x" + strconv.FormatFloat(speed, 'f', -1, 64),
			(time.Duration(speed) * time.Minute).String(),
			isDefault,
		})
	}

	table.Render()
}
