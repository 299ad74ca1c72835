package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carbontrip/app"
	"github.com/kilianp07/carbontrip/core/emission"
	"github.com/kilianp07/carbontrip/core/model"
)

var estimateFlags struct {
	mode        string
	distance    float64
	hour        string
	origin      string
	destination string
	fuel        string
	engineSize  float64
	year        int
	efficiency  float64
	weight      float64
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the emissions of one trip",
	RunE:  runEstimate,
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estimateFlags.mode, "mode", "driving", "transport mode")
	f.Float64Var(&estimateFlags.distance, "distance", 0, "trip distance in km")
	f.StringVar(&estimateFlags.hour, "hour", "", "departure time as HH:mm or an hour (0-23)")
	f.StringVar(&estimateFlags.origin, "origin", "", "origin as lat,lon; resolves live conditions with --destination")
	f.StringVar(&estimateFlags.destination, "destination", "", "destination as lat,lon")
	f.StringVar(&estimateFlags.fuel, "fuel", "", "vehicle fuel type")
	f.Float64Var(&estimateFlags.engineSize, "engine-size", 0, "engine size in litres")
	f.IntVar(&estimateFlags.year, "year", 0, "vehicle model year")
	f.Float64Var(&estimateFlags.efficiency, "efficiency", 0, "consumption per 100 km")
	f.Float64Var(&estimateFlags.weight, "weight", 0, "vehicle weight in kg")
	_ = estimateCmd.MarkFlagRequired("distance")
	rootCmd.AddCommand(estimateCmd)
}

func estimateRequest() (emission.Request, error) {
	fl := estimateFlags
	req := emission.Request{Mode: fl.mode, DistanceKm: fl.distance}
	if fl.hour != "" {
		h, err := model.ParseDepartureHour(fl.hour)
		if err != nil {
			return emission.Request{}, err
		}
		req.Hour = &h
	}
	if fl.fuel != "" {
		req.Vehicle = &model.VehicleSpec{
			FuelType:   model.FuelType(fl.fuel),
			EngineSize: fl.engineSize,
			Year:       fl.year,
			Efficiency: fl.efficiency,
			Weight:     fl.weight,
		}
	}
	if fl.origin != "" && fl.destination != "" {
		o, err := model.ParseCoordinates(fl.origin)
		if err != nil {
			return req, err
		}
		d, err := model.ParseCoordinates(fl.destination)
		if err != nil {
			return req, err
		}
		req.Origin, req.Destination = &o, &d
	}
	return req, nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	req, err := estimateRequest()
	if err != nil {
		return err
	}
	return withService(cmd.Context(), false, func(ctx context.Context, svc *app.Service) error {
		res, err := svc.Emission.Calculate(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	})
}
