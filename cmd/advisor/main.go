package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the advisor command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "advisor",
		Short: "Run the crop advisory engine against a single soil reading",
		Long: `advisor scores a soil and climate reading without a server or datastore.

Example:
  advisor crop --nitrogen 90 --phosphorus 45 --potassium 45 --ph 6.5 \
    --temperature 27 --humidity 85 --rainfall 200`,
		SilenceUsage: true,
	}

	root.AddCommand(newCropCmd(), newFertilizerCmd(), newYieldCmd(), newCropsCmd())
	return root
}

// measurementFlags binds the seven readings to a command
type measurementFlags struct {
	m domain.Measurement
}

func (f *measurementFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Float64Var(&f.m.Nitrogen, "nitrogen", 0, "nitrogen (kg/ha)")
	flags.Float64Var(&f.m.Phosphorus, "phosphorus", 0, "phosphorus (kg/ha)")
	flags.Float64Var(&f.m.Potassium, "potassium", 0, "potassium (kg/ha)")
	flags.Float64Var(&f.m.PH, "ph", 0, "soil pH (0-14)")
	flags.Float64Var(&f.m.Temperature, "temperature", 0, "temperature (°C)")
	flags.Float64Var(&f.m.Humidity, "humidity", 0, "relative humidity (%)")
	flags.Float64Var(&f.m.Rainfall, "rainfall", 0, "rainfall (mm)")
}

func (f *measurementFlags) measurement() (domain.Measurement, error) {
	if err := f.m.Validate(); err != nil {
		return domain.Measurement{}, err
	}
	return f.m, nil
}

func newCropCmd() *cobra.Command {
	var (
		readings measurementFlags
		rank     bool
	)
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Recommend the best suited crop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readings.measurement()
			if err != nil {
				return err
			}
			if rank {
				return writeJSON(cmd.OutOrStdout(), usecase.RankCrops(m))
			}
			return writeJSON(cmd.OutOrStdout(), usecase.MatchCrop(m))
		},
	}
	readings.register(cmd)
	cmd.Flags().BoolVar(&rank, "rank", false, "print every crop's score instead of the recommendation")
	return cmd
}

func newFertilizerCmd() *cobra.Command {
	var (
		readings measurementFlags
		crop     string
	)
	cmd := &cobra.Command{
		Use:   "fertilizer",
		Short: "Recommend a fertilizer plan for a crop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readings.measurement()
			if err != nil {
				return err
			}
			warnFallback(cmd, crop)
			return writeJSON(cmd.OutOrStdout(), usecase.RecommendFertilizer(crop, m.Nitrogen, m.Phosphorus, m.Potassium, m.PH))
		},
	}
	readings.register(cmd)
	cmd.Flags().StringVar(&crop, "crop", "", "crop name, e.g. Rice")
	_ = cmd.MarkFlagRequired("crop")
	return cmd
}

func newYieldCmd() *cobra.Command {
	var (
		readings measurementFlags
		crop     string
	)
	cmd := &cobra.Command{
		Use:   "yield",
		Short: "Estimate yield in tons/hectare for a crop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readings.measurement()
			if err != nil {
				return err
			}
			warnFallback(cmd, crop)
			return writeJSON(cmd.OutOrStdout(), usecase.EstimateYield(crop, m))
		},
	}
	readings.register(cmd)
	cmd.Flags().StringVar(&crop, "crop", "", "crop name, e.g. Rice")
	_ = cmd.MarkFlagRequired("crop")
	return cmd
}

func newCropsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List the built-in crop profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), domain.CropProfiles())
		},
	}
}

// warnFallback tells the user on stderr when crop has no reference profile
func warnFallback(cmd *cobra.Command, crop string) {
	if domain.IsKnownCrop(crop) {
		return
	}
	msg := fmt.Sprintf("warning: unknown crop %q, using default reference values", crop)
	if suggestion, ok := usecase.SuggestCrop(crop); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
