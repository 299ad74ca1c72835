package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carbontrip/app"
	"github.com/kilianp07/carbontrip/core/model"
	"github.com/kilianp07/carbontrip/core/prediction"
)

var tripFlags struct {
	from    string
	to      string
	mode    string
	at      string
	exclude []string
}

func addTripFlags(c *cobra.Command, withMode bool) {
	f := c.Flags()
	f.StringVar(&tripFlags.from, "from", "", "origin, an address or lat,lon")
	f.StringVar(&tripFlags.to, "to", "", "destination, an address or lat,lon")
	f.StringVar(&tripFlags.at, "at", "", "departure date or time (RFC 3339, 2006-01-02T15:04 or 2006-01-02)")
	if withMode {
		f.StringVar(&tripFlags.mode, "mode", "driving", "transport mode")
	}
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
}

var departuresCmd = &cobra.Command{
	Use:   "departures",
	Short: "Rank departure hours by predicted emissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseTime(tripFlags.at)
		if err != nil {
			return err
		}
		return withService(cmd.Context(), true, func(ctx context.Context, svc *app.Service) error {
			routes, err := svc.Prediction.PredictOptimalDepartureTimes(ctx, tripFlags.from, tripFlags.to, tripFlags.mode, date)
			if err != nil {
				return err
			}
			return printJSON(cmd, routes)
		})
	},
}

var alternativesCmd = &cobra.Command{
	Use:   "alternatives",
	Short: "Suggest lower-emission modes for a trip",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseTime(tripFlags.at)
		if err != nil {
			return err
		}
		return withService(cmd.Context(), true, func(ctx context.Context, svc *app.Service) error {
			routes, err := svc.Prediction.SuggestEcoFriendlyAlternatives(ctx, tripFlags.from, tripFlags.to, tripFlags.mode, at)
			if err != nil {
				return err
			}
			return printJSON(cmd, routes)
		})
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rank the feasible modes for a trip right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseTime(tripFlags.at)
		if err != nil {
			return err
		}
		prefs := prediction.Preferences{DepartureTime: at}
		for _, s := range tripFlags.exclude {
			m, _, ok := model.ParseMode(s)
			if !ok {
				return fmt.Errorf("unknown mode %q in --exclude", s)
			}
			prefs.ExcludeModes = append(prefs.ExcludeModes, m)
		}
		return withService(cmd.Context(), true, func(ctx context.Context, svc *app.Service) error {
			routes, err := svc.Prediction.OptimizeRouteRealTime(ctx, tripFlags.from, tripFlags.to, prefs)
			if err != nil {
				return err
			}
			return printJSON(cmd, routes)
		})
	},
}

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Predict traffic on a route at a given time",
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseTime(tripFlags.at)
		if err != nil {
			return err
		}
		return withService(cmd.Context(), true, func(ctx context.Context, svc *app.Service) error {
			if at.IsZero() {
				at = time.Now()
			}
			tp := svc.Prediction.PredictTrafficConditions(ctx, prediction.RouteKey(tripFlags.from, tripFlags.to), at)
			return printJSON(cmd, tp)
		})
	},
}

func init() {
	addTripFlags(departuresCmd, true)
	addTripFlags(alternativesCmd, true)
	addTripFlags(optimizeCmd, false)
	optimizeCmd.Flags().StringSliceVar(&tripFlags.exclude, "exclude", nil, "modes to leave out")
	addTripFlags(trafficCmd, false)
	rootCmd.AddCommand(departuresCmd, alternativesCmd, optimizeCmd, trafficCmd)
}
