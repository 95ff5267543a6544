package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/admitcalc/internal/adapters/repository"
	service "github.com/okian/admitcalc/internal/app"
	"github.com/okian/admitcalc/internal/domain/admission"
	"github.com/okian/admitcalc/pkg/logger"
)

type estimateOptions struct {
	dataFile string
	sheet    string
	group    string
	sector   string
	score    float64
	top      int
	format   string
	verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &estimateOptions{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate admission probabilities for a score",
		Long: `Estimate loads a historical score list (.xlsx or .csv), selects one group
and sector, and ranks every specialty by the probability that the given
score reaches its passing score.`,
		Example: `  estimate --data scores.xlsx --group 1 --score 560
  estimate --data scores.csv --group 2 --sector az --score 610 --top 5 --format json`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimate(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.dataFile, "data", "d", "", "Score list file (.xlsx or .csv)")
	flags.StringVar(&opts.sheet, "sheet", "", "Worksheet name (default: first sheet)")
	flags.StringVarP(&opts.format, "format", "f", formatTable, "Output format: table, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log dataset loading details")
	_ = cmd.MarkPersistentFlagRequired("data")

	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "Group to evaluate")
	cmd.Flags().StringVarP(&opts.sector, "sector", "s", repository.AllSectors, "Sector, or All")
	cmd.Flags().Float64Var(&opts.score, "score", 0, "Candidate score")
	cmd.Flags().IntVarP(&opts.top, "top", "n", 0, "Number of specialties to show (default: service default)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("score")

	cmd.AddCommand(newGroupsCommand(opts))
	return cmd
}

// loadService reads the data file into a ready service.
func loadService(ctx context.Context, opts *estimateOptions) (*service.Service, error) {
	log := logger.Nop()
	if opts.verbose {
		if err := logger.Init(logger.WithFormat("text")); err != nil {
			return nil, err
		}
		_ = logger.SetLevelString("debug")
		log = logger.Named("estimate")
	}
	store := repository.NewStore(
		repository.WithPath(opts.dataFile),
		repository.WithLoadOptions(repository.WithSheet(opts.sheet)),
		repository.WithLogger(log),
	)
	svc := service.New(
		service.WithStore(store),
		service.WithEngine(admission.NewEngine()),
		service.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func runEstimate(cmd *cobra.Command, opts *estimateOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	svc, err := loadService(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer svc.Stop()

	req := service.CalculateRequest{Score: opts.score, Group: opts.group, Sector: opts.sector}
	if cmd.Flags().Changed("top") {
		req.TopN = &opts.top
	}
	res, err := svc.Calculate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), opts.format, res)
}

func newGroupsCommand(opts *estimateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups and sectors in a score list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			svc, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer svc.Stop()

			choices, err := svc.Options(cmd.Context())
			if err != nil {
				return err
			}
			if opts.format == formatTable {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Groups:  %s\n", strings.Join(choices.Groups, ", "))
				_, _ = fmt.Fprintf(out, "Sectors: %s (or %s)\n", strings.Join(choices.Sectors, ", "), choices.AllSectors)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), opts.format, choices)
		},
	}
}
