package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/landpermit-cli/internal/config"
	"github.com/sells-group/landpermit-cli/internal/model"
	"github.com/sells-group/landpermit-cli/internal/monitoring"
	"github.com/sells-group/landpermit-cli/internal/pipeline"
	"github.com/sells-group/landpermit-cli/pkg/landseoul"
	"github.com/sells-group/landpermit-cli/pkg/telegram"
)

// previewRows is the number of records printed before the reports.
const previewRows = 5

var (
	runStart         string
	runEnd           string
	runDistricts     []string
	runNoNotify      bool
	runFocusDistrict string
	runFocusDong     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, enrich and report permits for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		begin, end, err := dateRange(runStart, runEnd, cfg.Report.Timezone, time.Now())
		if err != nil {
			return err
		}
		districts, err := selectDistricts(cfg, runDistricts)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, !runNoNotify)
		if err != nil {
			return err
		}
		defer env.Close()

		started := time.Now()
		result, err := env.Pipeline.Run(ctx, pipeline.Request{
			Begin:     begin,
			End:       end,
			Districts: districts,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		collector := monitoring.NewCollector(result.RunID)
		for _, d := range result.Districts {
			collector.ObserveDistrict(d)
		}
		collector.ObserveGeocode(result.Geocode.CacheHits, result.Geocode.Lookups, result.Geocode.Failures)

		if err := writeOutputs(result); err != nil {
			return err
		}

		var (
			sender    telegram.Sender
			notifyErr error
		)
		if !runNoNotify {
			sender, notifyErr = initNotifier(env.HTTP)
			if notifyErr != nil {
				zap.L().Error("chat bot unavailable, printing reports only", zap.Error(notifyErr))
				collector.ObserveMessage(notifyErr)
			}
		}

		focusDistrict := firstNonEmpty(runFocusDistrict, cfg.Report.FocusDistrict)
		focusDong := firstNonEmpty(runFocusDong, cfg.Report.FocusDong)
		reportErr := deliverReports(ctx, cmd.OutOrStdout(), sender, collector, result, len(districts), focusDistrict, focusDong)
		if notifyErr != nil {
			reportErr = notifyErr
		}

		collector.Finish(time.Since(started))
		finishMonitoring(ctx, collector, monitoring.NewAlerter(cfg.Metrics, env.HTTP))

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Int("permits", len(result.Deduped)),
			zap.Duration("elapsed", time.Since(started)),
		)
		return reportErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start_date", "", "search start date YYYYMMDD (default yesterday)")
	runCmd.Flags().StringVar(&runEnd, "end_date", "", "search end date YYYYMMDD (default yesterday)")
	runCmd.Flags().StringSliceVar(&runDistricts, "district", nil, "district name to include (repeatable, default all configured)")
	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "write exports only, do not send chat reports")
	runCmd.Flags().StringVar(&runFocusDistrict, "focus-district", "", "district whose dong detail is reported (default report.focus_district)")
	runCmd.Flags().StringVar(&runFocusDong, "focus-dong", "", "dong reported in detail (default report.focus_dong)")
	rootCmd.AddCommand(runCmd)
}

// dateRange resolves the compact begin and end dates. Empty values default
// to yesterday in the report timezone.
func dateRange(begin, end, tz string, now time.Time) (string, string, error) {
	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return "", "", eris.Wrapf(err, "run: load timezone %q", tz)
		}
		loc = l
	}
	yesterday := now.In(loc).AddDate(0, 0, -1).Format(landseoul.DateLayout)
	begin = firstNonEmpty(begin, yesterday)
	end = firstNonEmpty(end, yesterday)

	b, err := time.ParseInLocation(landseoul.DateLayout, begin, loc)
	if err != nil {
		return "", "", eris.Errorf("run: invalid --start_date %q, want YYYYMMDD", begin)
	}
	e, err := time.ParseInLocation(landseoul.DateLayout, end, loc)
	if err != nil {
		return "", "", eris.Errorf("run: invalid --end_date %q, want YYYYMMDD", end)
	}
	if e.Before(b) {
		return "", "", eris.Errorf("run: end date %s is before start date %s", end, begin)
	}
	return begin, end, nil
}

// selectDistricts returns the configured districts, narrowed to names when
// any are given. Unknown names are an error.
func selectDistricts(c *config.Config, names []string) ([]model.District, error) {
	if len(names) == 0 {
		return c.Districts, nil
	}
	out := make([]model.District, 0, len(names))
	for _, name := range names {
		d, ok := c.District(strings.TrimSpace(name))
		if !ok {
			return nil, eris.Errorf("run: unknown district %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// writeOutputs writes the configured CSV and workbook exports. Nothing is
// written when the run found no permits.
func writeOutputs(result *pipeline.Result) error {
	if len(result.Raw) == 0 {
		zap.L().Info("no permits found, skipping exports")
		return nil
	}
	if path := cfg.Output.RawCSV; path != "" {
		if err := pipeline.ExportCSV(result.Raw, path); err != nil {
			return err
		}
		zap.L().Info("wrote raw export", zap.String("path", path), zap.Int("rows", len(result.Raw)))
	}
	if path := cfg.Output.DedupCSV; path != "" {
		if err := pipeline.ExportCSV(result.Deduped, path); err != nil {
			return err
		}
		zap.L().Info("wrote deduplicated export", zap.String("path", path), zap.Int("rows", len(result.Deduped)))
	}
	if path := cfg.Output.XLSXPath; path != "" {
		if err := pipeline.ExportXLSX(result.Deduped, path); err != nil {
			return err
		}
		zap.L().Info("wrote workbook", zap.String("path", path))
	}
	return nil
}

// deliverReports prints each report to out and, when sender is set, posts
// it to the chat. Every report is attempted; the first delivery error is
// returned.
func deliverReports(ctx context.Context, out io.Writer, sender telegram.Sender, collector *monitoring.Collector, result *pipeline.Result, districtCount int, focusDistrict, focusDong string) error {
	records := result.Deduped

	var (
		header  string
		reports []string
	)
	if len(records) == 0 {
		header = pipeline.MessageHeader(result.Begin, result.End, 0)
		reports = []string{pipeline.NoResultsText}
	} else {
		header = pipeline.MessageHeader(result.Begin, result.End, districtCount)
		fmt.Fprintln(out, pipeline.DetailTable(records[:min(previewRows, len(records))]))
		reports = []string{
			pipeline.NeighborhoodSummary(records),
			pipeline.BuildingSummary(records),
		}
		if focus := pipeline.FilterByDistrict(records, focusDistrict); len(focus) > 0 {
			reports = append(reports, pipeline.NeighborhoodDetail(focus, focusDong))
		}
	}

	var firstErr error
	for _, body := range reports {
		fmt.Fprintln(out, body)
		if sender == nil {
			continue
		}
		_, err := sender.Send(ctx, header, body)
		collector.ObserveMessage(err)
		if err != nil {
			zap.L().Error("chat report failed", zap.Error(err))
			if firstErr == nil {
				firstErr = eris.Wrap(err, "send report")
			}
		}
	}
	return firstErr
}

// finishMonitoring writes the metrics textfile and raises alerts.
func finishMonitoring(ctx context.Context, collector *monitoring.Collector, alerter *monitoring.Alerter) {
	if path := cfg.Metrics.Textfile; path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			zap.L().Error("write metrics textfile", zap.Error(err))
		}
	}

	alerts := alerter.Evaluate(collector.Snapshot())
	for _, a := range alerts {
		zap.L().Warn("run alert",
			zap.String("type", string(a.Type)),
			zap.String("severity", a.Severity),
			zap.String("message", a.Message),
		)
	}
	alerter.SendAlerts(ctx, alerts)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
