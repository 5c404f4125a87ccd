package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/impedance.report/internal/eis/eval"
)

// SaveHTML writes a standalone HTML report for one evaluation run: a
// predicted-vs-true scatter and a per-group RMSE bar chart.
func SaveHTML(res *eval.Result, title, path string) error {
	if len(res.Predictions) == 0 {
		return fmt.Errorf("no predictions to report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "800px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("run=%s predictions=%d", res.RunID, len(res.Predictions)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "true"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "predicted"}),
	)

	data := make([]opts.ScatterData, len(res.Predictions))
	for i, p := range res.Predictions {
		data[i] = opts.ScatterData{Value: []interface{}{p.YTrue, p.YPred}}
	}
	scatter.AddSeries("out-of-fold", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	groups, rmse := groupRMSE(res)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "RMSE by cell"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "cell"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RMSE"}),
	)
	barData := make([]opts.BarData, len(rmse))
	for i, v := range rmse {
		barData[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(groups).AddSeries("rmse", barData)

	page := components.NewPage()
	page.AddCharts(scatter, bar)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()
	return page.Render(f)
}

// groupRMSE computes per-group RMSE over the aggregated predictions,
// returning groups in sorted order.
func groupRMSE(res *eval.Result) ([]string, []float64) {
	byGroup := make(map[string][]eval.Prediction)
	for _, p := range res.Predictions {
		byGroup[p.Group] = append(byGroup[p.Group], p)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	rmse := make([]float64, len(groups))
	for i, g := range groups {
		preds := byGroup[g]
		yTrue := make([]float64, len(preds))
		yPred := make([]float64, len(preds))
		for j, p := range preds {
			yTrue[j] = p.YTrue
			yPred[j] = p.YPred
		}
		rmse[i] = eval.RMSE(yTrue, yPred)
	}
	return groups, rmse
}
