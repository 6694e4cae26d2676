// Package report formats run outcomes as text for terminals and logs.
package report

import (
	"fmt"
	"io"
	"strconv"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultTableRows is how many trailing rows the data table shows.
const DefaultTableRows = 50

// Metrics are the headline numbers of a run, formatted for display.
type Metrics struct {
	Price          string `json:"price"`
	ZScore         string `json:"zscore"`
	Stochastic     string `json:"stochastic"`
	ZScoreZone     string `json:"zscore_zone"`
	StochasticZone string `json:"stochastic_zone"`
}

func FormatMetrics(s models.Summary) Metrics {
	return Metrics{
		Price:          fmt.Sprintf("%.2f", s.Close),
		ZScore:         fmt.Sprintf("%.2f", s.ZScore),
		Stochastic:     fmt.Sprintf("%.1f", s.Stochastic),
		ZScoreZone:     string(s.ZScoreZone),
		StochasticZone: string(s.StochasticZone),
	}
}

// Options controls table rendering.
type Options struct {
	Rows  int  // trailing rows to show; <= 0 shows all
	Color bool // ANSI colors for zone highlighting
}

// WriteOutcome writes the metrics block followed by the data table, or the
// halt message when the run did not succeed.
func WriteOutcome(w io.Writer, o *models.Outcome, opts Options) error {
	if !o.OK() {
		_, err := fmt.Fprintf(w, "%s %s: %s\n", o.Config.Symbol, o.State, o.Message)
		return err
	}

	m := FormatMetrics(*o.Summary)
	mt := table.NewWriter()
	mt.SetOutputMirror(w)
	mt.SetTitle(fmt.Sprintf("%s %s windows=%s", o.Series.Symbol, o.Series.Timeframe, o.Series.Windows))
	mt.AppendHeader(table.Row{"Price", "Z-score", "Stochastic", "Z zone", "Stoch zone"})
	mt.AppendRow(table.Row{m.Price, m.ZScore, m.Stochastic, m.ZScoreZone, m.StochasticZone})
	mt.SetStyle(tableStyle(opts.Color))
	mt.Render()

	_, err := fmt.Fprintln(w)
	if err != nil {
		return err
	}
	WriteTable(w, o.Series, opts)
	return nil
}

// WriteTable renders the trailing rows of ds with one MA and one distance
// column per window. Distances and the raw signal are fractions in the
// series and are printed as percentages.
func WriteTable(w io.Writer, ds *models.DerivedSeries, opts Options) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"Time", "Close"}
	for _, win := range ds.Windows {
		header = append(header, "MA"+strconv.Itoa(win))
	}
	for _, win := range ds.Windows {
		header = append(header, "Dist"+strconv.Itoa(win)+"%")
	}
	header = append(header, "Raw%", "Z", "Stoch")
	t.AppendHeader(header)

	layout := "2006-01-02"
	if domrepo.IsIntraday(ds.Timeframe) {
		layout = "2006-01-02 15:04"
	}

	for _, r := range ds.Tail(opts.Rows) {
		row := table.Row{r.Time.Format(layout), fmt.Sprintf("%.2f", r.Close)}
		for _, v := range r.MA {
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		for _, v := range r.Dist {
			row = append(row, percent(v))
		}
		z := fmt.Sprintf("%.2f", r.ZScore)
		k := fmt.Sprintf("%.1f", r.Stochastic)
		if opts.Color {
			z = zoneColor(models.NewSummary(r).ZScoreZone).Sprint(z)
			k = zoneColor(models.NewSummary(r).StochasticZone).Sprint(k)
		}
		row = append(row, percent(r.Raw), z, k)
		t.AppendRow(row)
	}

	cfgs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= len(header); i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
	t.SetStyle(tableStyle(opts.Color))
	t.Render()
}

func percent(frac float64) string {
	return fmt.Sprintf("%.2f", frac*100)
}

func zoneColor(z models.Zone) text.Colors {
	switch z {
	case models.ZoneExpensive, models.ZoneSell:
		return text.Colors{text.FgHiRed}
	case models.ZoneCheap, models.ZoneBuy:
		return text.Colors{text.FgHiGreen}
	default:
		return text.Colors{}
	}
}

func tableStyle(color bool) table.Style {
	style := table.Style{
		Name:    "quant",
		Box:     table.StyleBoxRounded,
		Format:  table.FormatOptionsDefault,
		HTML:    table.DefaultHTMLOptions,
		Options: table.OptionsDefault,
		Title:   table.TitleOptionsDefault,
	}
	// headers are printed as written, e.g. "Dist50%"
	style.Format.Header = text.FormatDefault
	if color {
		style.Color = table.ColorOptionsDefault
		style.Color.Header = text.Colors{text.Bold, text.FgHiCyan}
	}
	return style
}
