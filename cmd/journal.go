package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carbontrip/app"
	"github.com/kilianp07/carbontrip/core/journal"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/infra/logger"
	"github.com/kilianp07/carbontrip/jobs/replay"
	"github.com/kilianp07/carbontrip/pkg/export"
)

var queryFlags struct {
	start string
	end   string
	mode  string
}

func addQueryFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&queryFlags.start, "start", "", "only journeys at or after this time")
	f.StringVar(&queryFlags.end, "end", "", "only journeys at or before this time")
	f.StringVar(&queryFlags.mode, "mode", "", "only journeys with this mode")
}

func journalQuery() (journal.Query, error) {
	var q journal.Query
	var err error
	if q.Start, err = parseTime(queryFlags.start); err != nil {
		return q, err
	}
	if q.End, err = parseTime(queryFlags.end); err != nil {
		return q, err
	}
	if queryFlags.mode != "" {
		m, _, ok := model.ParseMode(queryFlags.mode)
		if !ok {
			return q, &model.InputError{Field: "mode", Reason: "unknown mode " + queryFlags.mode}
		}
		q.Mode = m
	}
	return q, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the travel patterns stored in the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := journalQuery()
		if err != nil {
			return err
		}
		return withService(cmd.Context(), false, func(ctx context.Context, svc *app.Service) error {
			journeys, err := svc.Journal.Load(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd, svc.Prediction.AnalyzeUserPatterns(ctx, journeys))
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay the journal into the prediction engine and report the model state",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := journalQuery()
		if err != nil {
			return err
		}
		return withService(cmd.Context(), false, func(ctx context.Context, svc *app.Service) error {
			res, err := replay.Replay(ctx, svc.Journal, q, svc.Prediction, logger.New("replay"))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"loaded":   res.Loaded,
				"ingested": res.Ingested,
				"skipped":  res.Skipped,
				"models":   svc.Prediction.Models(),
			})
		})
	},
}

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored journeys as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := journalQuery()
		if err != nil {
			return err
		}
		return withService(cmd.Context(), false, func(ctx context.Context, svc *app.Service) error {
			journeys, err := svc.Journal.Load(ctx, q)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), exportFormat, journeys)
		})
	},
}

var recordFlags struct {
	model.JourneyPattern
	mode string
	at   string
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Store a completed journey in the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		j := recordFlags.JourneyPattern
		j.Mode = model.Mode(recordFlags.mode)
		at, err := parseTime(recordFlags.at)
		if err != nil {
			return err
		}
		j.Timestamp = at
		return withService(cmd.Context(), false, func(ctx context.Context, svc *app.Service) error {
			stored, err := svc.RecordJourney(ctx, j)
			if err != nil {
				return err
			}
			return printJSON(cmd, stored)
		})
	},
}

func init() {
	addQueryFlags(analyzeCmd)
	addQueryFlags(replayCmd)
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")

	f := recordCmd.Flags()
	f.StringVar(&recordFlags.Origin, "from", "", "origin")
	f.StringVar(&recordFlags.Destination, "to", "", "destination")
	f.StringVar(&recordFlags.mode, "mode", "driving", "transport mode")
	f.Float64Var(&recordFlags.Distance, "distance", 0, "distance in km")
	f.Float64Var(&recordFlags.Emissions, "emissions", 0, "emissions in kg CO2")
	f.Float64Var(&recordFlags.Duration, "duration", 0, "duration in minutes")
	f.StringVar(&recordFlags.at, "at", "", "departure time, now when empty")

	rootCmd.AddCommand(analyzeCmd, replayCmd, exportCmd, recordCmd)
}
