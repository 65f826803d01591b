package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/bootstrap"
	"trip_planner/internal/domain"
	"trip_planner/internal/shared"
)

type tripPlanner interface {
	PlanTrip(ctx context.Context, req domain.TripRequest, opts domain.Options) (*domain.TripSummary, error)
}

// plannerFactory returns a planner, the option defaults and a cleanup func.
type plannerFactory func(ctx context.Context) (tripPlanner, domain.Options, func(), error)

func defaultPlannerFactory(ctx context.Context) (tripPlanner, domain.Options, func(), error) {
	cfg := shared.Load()
	// stdout carries the summary
	log.Logger = observability.NewLoggerTo(os.Stderr, cfg.AppEnv, cfg.LogLevel)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, domain.Options{}, nil, fmt.Errorf("open hotel catalog: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.Options{}, nil, fmt.Errorf("hotel catalog unreachable: %w", err)
	}

	cache, rc, err := bootstrap.ConnectCache(ctx, cfg)
	if err != nil {
		log.Debug().Err(err).Msg("redis unreachable; running without cache")
	}

	p, err := bootstrap.Providers(cfg, db, cache)
	if err != nil {
		_ = db.Close()
		_ = rc.Close()
		return nil, domain.Options{}, nil, err
	}
	cleanup := func() {
		_ = db.Close()
		_ = rc.Close()
	}
	return bootstrap.Planner(cfg, p, log.Logger), bootstrap.Options(cfg), cleanup, nil
}

func newRootCmd(factory plannerFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "tripctl",
		Short:         "Trip planner CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPlanCmd(factory))
	return root
}

func newPlanCmd(factory plannerFactory) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a trip and print the summary",
		Long: `Plans a trip for a destination and date range: attractions, weather, lodging,
costs in your currency and a day-by-day itinerary. Every flag can also be set
through a TRIP_* environment variable (e.g. TRIP_DESTINATION, TRIP_MAX_ITEMS).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), v, factory)
		},
	}

	f := cmd.Flags()
	f.String("destination", "", "destination city")
	f.String("start", "", "first day (YYYY-MM-DD)")
	f.String("end", "", "last day (YYYY-MM-DD)")
	f.Int("party", 1, "number of travellers")
	f.String("currency", "USD", "native currency (ISO 4217)")
	f.String("budget", "", "optional total budget in the native currency")
	f.String("working-currency", "", "currency providers quote in (defaults to configuration)")
	f.Bool("skip-lodging", false, "plan without a hotel if none is available")
	f.Int("max-items", 0, "maximum itinerary items per day (0 = configured default)")
	f.Bool("sequential", false, "run sibling stages one after another")
	f.Bool("require-conversion", false, "fail instead of falling back when no exchange rate is available")
	f.StringP("output", "o", "json", "output format: json|yaml")
	_ = v.BindPFlags(f)

	return cmd
}

func runPlan(ctx context.Context, out io.Writer, v *viper.Viper, factory plannerFactory) error {
	format := strings.ToLower(v.GetString("output"))
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
	start, err := domain.ParseDate(v.GetString("start"))
	if err != nil {
		return err
	}
	end, err := domain.ParseDate(v.GetString("end"))
	if err != nil {
		return err
	}
	req := domain.NewTripRequest(v.GetString("destination"), start, end, v.GetInt("party"), v.GetString("currency"))
	if b := strings.TrimSpace(v.GetString("budget")); b != "" {
		amount, err := decimal.NewFromString(b)
		if err != nil {
			return fmt.Errorf("%w: budget %q is not a number", domain.ErrInvalidRequest, b)
		}
		budget := domain.NewMoney(amount, req.NativeCurrency)
		req.Budget = &budget
	}
	// fail fast before any provider is wired; trip length is the planner's call
	if err := req.ValidateMaxDays(0); err != nil {
		return err
	}

	planner, opts, cleanup, err := factory(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	opts.SkipLodging = v.GetBool("skip-lodging")
	opts.ConcurrencyEnabled = !v.GetBool("sequential")
	opts.RequireConversion = v.GetBool("require-conversion")
	if n := v.GetInt("max-items"); n > 0 {
		opts.MaxItemsPerDay = n
	}
	if wc := strings.TrimSpace(v.GetString("working-currency")); wc != "" {
		opts.WorkingCurrency = strings.ToUpper(wc)
	}

	summary, err := planner.PlanTrip(ctx, req, opts)
	if err != nil {
		return err
	}
	return render(out, format, summary)
}

// render prints the summary. YAML output reuses the JSON field names.
func render(out io.Writer, format string, summary *domain.TripSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if format == "json" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}
