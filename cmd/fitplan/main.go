package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/xarlytos/fitplanner/internal/backend"
	"github.com/xarlytos/fitplanner/internal/checkin"
	"github.com/xarlytos/fitplanner/internal/clock"
	"github.com/xarlytos/fitplanner/internal/config"
	"github.com/xarlytos/fitplanner/internal/logging"
	"github.com/xarlytos/fitplanner/internal/planner"
	"github.com/xarlytos/fitplanner/internal/planning"
	"github.com/xarlytos/fitplanner/internal/planning/calendar"
	"github.com/xarlytos/fitplanner/internal/telemetry/metrics"
	"github.com/xarlytos/fitplanner/internal/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code, so deferred shutdowns run before exiting.
func realMain() int {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	date := flag.String("date", "", "day to select, YYYY-MM-DD (default today)")
	shift := flag.Int("shift", 0, "shift the visible window by this many days")
	exerciseKey := flag.String("exercise", "", "exercise to check in, by id (or session/name for exercises without id)")
	setNumber := flag.Int("set", 1, "1-based set number to edit before the check-in")
	weight := flag.Float64("weight", -1, "weight (kg) done in the set, negative keeps the planned one")
	reps := flag.Int("reps", -1, "reps done in the set, negative keeps the planned ones")
	comment := flag.String("comment", "", "comment for the set")
	metricsOut := flag.String("metrics-out", "", "write the metrics in prometheus text format to this file on exit")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	flushLogs, err := logging.Setup(logging.ParamsFromConfig(cfg, os.Getenv("SENTRY_DSN")))
	if err != nil {
		log.Errorf("logging setup: %s", err)
	}
	defer flushLogs()
	log.Debugf("running in [%s] environment against [%s]", cfg.Environment, cfg.BackendURL)

	token := os.Getenv("FITPLAN_TOKEN")
	if token == "" {
		log.Fatalln("auth token not set, use FITPLAN_TOKEN env var to set it")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	tracingShutdown, err := tracing.HoneycombSetup(honeycombEnabled, "fitplan")
	if err != nil {
		log.Fatalf("honeycomb setup: %s", err)
	}
	defer tracingShutdown()

	metricsRegistry := metrics.NewRegistry()
	metricsManager := metrics.NewManager("fitplanner", "cli", metricsRegistry)
	if *metricsOut != "" {
		defer writeMetrics(*metricsOut, metricsRegistry)
	}

	client := backend.NewClient(
		cfg.BackendURL,
		backend.NewHTTPClient(backend.NewJWTToken(token, clock.RealClock{}), cfg.RequestTimeout(), metricsManager),
		backend.WithPlanCache(cfg.PlanCacheTTL()),
	)
	service := planner.NewService(planner.NewServiceParams{
		Fetcher:      client,
		Aggregator:   planning.NewAggregator(cfg.Policy()),
		Navigator:    calendar.NewNavigator(clock.RealClock{}, cfg.WindowSize),
		Synchronizer: checkin.NewSynchronizer(client, checkin.DefaultSessionResolver(), metricsManager),
		Metrics:      metricsManager,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout, service, runParams{
		date:        *date,
		shift:       *shift,
		exerciseKey: *exerciseKey,
		setNumber:   *setNumber,
		weight:      *weight,
		reps:        *reps,
		comment:     *comment,
	}); err != nil {
		log.Errorf("fitplan: %s", err)
		return 1
	}
	return 0
}

type runParams struct {
	date        string
	shift       int
	exerciseKey string
	setNumber   int
	weight      float64
	reps        int
	comment     string
}

func run(ctx context.Context, out io.Writer, service *planner.Service, params runParams) error {
	if err := service.Refresh(ctx); err != nil {
		if errors.Is(err, planner.ErrPlanUnavailable) {
			fmt.Fprintln(out, "No training plan available.")
		}
		return err
	}

	if params.date != "" {
		date, err := planning.ParseDate(params.date)
		if err != nil {
			return fmt.Errorf("parse date flag: %w", err)
		}
		service.SelectDay(date)
	}
	if params.shift != 0 {
		service.ShiftWindow(params.shift)
	}

	printCalendar(out, service)

	if params.exerciseKey == "" {
		return nil
	}
	return checkinSet(ctx, out, service, params)
}

func printCalendar(out io.Writer, service *planner.Service) {
	fmt.Fprintf(out, "%s\n\n", service.PlanName())

	cal := service.Calendar()
	var strip []string
	for _, day := range service.VisibleDays() {
		cell := fmt.Sprintf("%s %02d", day.WeekdayLabel, day.DayOfMonth)
		if entry, ok := cal.EntryAt(day.Date); ok && entry.HasRoutine() {
			cell += "*"
		}
		switch {
		case day.IsSelected:
			cell = "[" + cell + "]"
		case day.IsToday:
			cell = "(" + cell + ")"
		}
		strip = append(strip, cell)
	}
	fmt.Fprintln(out, strings.Join(strip, "  "))
	fmt.Fprintln(out)

	cursor := service.Navigator().Cursor()
	entry, ok := service.ActiveEntry()
	if !ok || !entry.HasRoutine() {
		fmt.Fprintf(out, "%s: rest day\n", cursor)
	} else {
		printRoutine(out, entry.Date, *entry.Routine)
		for _, extra := range entry.AdditionalRoutines {
			printRoutine(out, entry.Date, extra)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Upcoming sessions:")
	for _, upcoming := range service.Upcoming(cursor) {
		fmt.Fprintf(out, "  %s  %-10s %s (%d exercises)\n",
			upcoming.Date, upcoming.WeekdayLabel, upcoming.Routine.Name, len(upcoming.Routine.Exercises))
	}
}

func printRoutine(out io.Writer, date planning.Date, routine planning.Routine) {
	fmt.Fprintf(out, "%s: %s\n", date, routine.Name)
	for _, exercise := range routine.Exercises {
		fmt.Fprintf(out, "  - %s [%s] %s\n", exercise.DisplayName, exercise.Key(), exercise.SeriesLabel)

		buffer := checkin.NewBuffer(exercise)
		columns := buffer.Columns()
		labels := make([]string, 0, len(columns))
		for _, c := range columns {
			labels = append(labels, c.Label())
		}
		fmt.Fprintf(out, "      %s\n", strings.Join(labels, " | "))

		for _, row := range buffer.Rows() {
			values := make([]string, 0, len(columns))
			for _, c := range columns {
				switch c {
				case planning.FieldWeight:
					values = append(values, fmt.Sprintf("%g", row.Weight))
				case planning.FieldReps:
					values = append(values, fmt.Sprintf("%d", row.Reps))
				case planning.FieldRest:
					values = append(values, fmt.Sprintf("%d", row.Rest))
				}
			}
			fmt.Fprintf(out, "      %d: %s\n", row.Index+1, strings.Join(values, " | "))
		}
	}
}

func checkinSet(ctx context.Context, out io.Writer, service *planner.Service, params runParams) error {
	buffer, err := service.OpenExercise(params.exerciseKey)
	if err != nil {
		return err
	}

	row := params.setNumber - 1
	if params.weight >= 0 {
		if err := buffer.SetWeight(row, params.weight); err != nil {
			return fmt.Errorf("set weight: %w", err)
		}
	}
	if params.reps >= 0 {
		if err := buffer.SetReps(row, params.reps); err != nil {
			return fmt.Errorf("set reps: %w", err)
		}
	}
	if params.comment != "" {
		if err := buffer.SetComment(row, params.comment); err != nil {
			return fmt.Errorf("set comment: %w", err)
		}
	}

	result, err := service.SaveExercise(ctx)
	if err != nil {
		var unresolvedErr *checkin.UnresolvedSessionError
		if errors.As(err, &unresolvedErr) {
			fmt.Fprintln(out, "Could not tell which session this exercise belongs to, nothing was saved.")
		}
		return err
	}

	fmt.Fprintln(out, result.Summary())
	return result.Err()
}

func writeMetrics(path string, reg *prometheus.Registry) {
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		log.Errorf("write metrics to %s: %s", path, err)
	}
}
