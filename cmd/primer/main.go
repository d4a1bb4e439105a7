// Command primer runs the framework's lessons from the terminal and
// keeps a local record of every run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/primer-ml/primer/internal/config"
	"github.com/primer-ml/primer/internal/experiment"
	"github.com/primer-ml/primer/internal/lesson"
)

const version = "0.1.0"

var (
	logger *zap.Logger

	verbose   bool
	dbPath    string
	cfgPath   string
	listLimit int
)

var rootCmd = &cobra.Command{
	Use:     "primer",
	Version: version,
	Short:   "A teaching ML framework: classic exercises from first principles",
	Long: `Primer implements five classic machine-learning exercises on a small
tensor library with reverse-mode autodiff: a from-scratch XOR network,
a convolutional MNIST classifier, a recurrent sentiment model, a
decision tree, and hierarchical clustering.

Every run records its config and per-epoch metrics in a local SQLite
database, inspectable with "primer runs".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [lesson]",
	Short: "Run a lesson and record its metrics",
	Long: `Run one lesson end to end: load data, train or fit, and stream
per-epoch metrics into the run database.

Available lessons: xor, mnist, sentiment, iris, cluster.

Without --config each lesson runs with its built-in defaults, sized so
every lesson finishes in seconds on a laptop CPU.`,
	Args: cobra.ExactArgs(1),
	RunE: runLesson,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  listRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run's config and per-epoch metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "primer-runs.db", "Run database path")

	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (built-in defaults when empty)")
	runsListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Max runs to list (0 = all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// storeRecorder streams a lesson's per-epoch metrics into the store.
type storeRecorder struct {
	store  *experiment.Store
	runID  string
	logger *zap.Logger
}

func (r *storeRecorder) Record(epoch int, name string, value float64) {
	if err := r.store.RecordMetric(r.runID, epoch, name, value); err != nil {
		r.logger.Warn("Failed to record metric",
			zap.String("name", name),
			zap.Error(err))
	}
}

func runLesson(cmd *cobra.Command, args []string) error {
	lessonName := args[0]

	runner, err := lesson.Get(lessonName)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cfg.Lesson != lessonName {
			return fmt.Errorf("config %s is for lesson %q, asked to run %q", cfgPath, cfg.Lesson, lessonName)
		}
	} else {
		cfg = config.DefaultConfig(lessonName)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	store, err := experiment.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	// First Ctrl-C stops the lesson between epochs; the run still lands
	// in the store as failed.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("Interrupted, stopping", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	run, err := store.StartRun(lessonName, cfg.Snapshot())
	if err != nil {
		return err
	}
	logger.Info("Run started",
		zap.String("run_id", run.ID),
		zap.String("lesson", lessonName),
		zap.String("db", store.Path()))

	start := time.Now()
	metrics, err := runner(ctx, cfg, logger, &storeRecorder{store: store, runID: run.ID, logger: logger})
	if err != nil {
		if finishErr := store.FinishRun(run.ID, experiment.StatusFailed, metrics); finishErr != nil {
			logger.Warn("Failed to seal run", zap.Error(finishErr))
		}
		return fmt.Errorf("lesson %s failed: %w", lessonName, err)
	}
	if err := store.FinishRun(run.ID, experiment.StatusFinished, metrics); err != nil {
		return err
	}

	fmt.Printf("Run %s finished in %s.\n", run.ID, time.Since(start).Round(time.Millisecond))
	for _, name := range sortedKeys(metrics) {
		fmt.Printf("  %-20s %.4f\n", name, metrics[name])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := experiment.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(listLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded in %s yet. Try: primer run xor\n", store.Path())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tLESSON\tSTATUS\tCREATED\tDURATION")
	for _, run := range runs {
		duration := "-"
		if !run.FinishedAt.IsZero() {
			duration = run.FinishedAt.Sub(run.CreatedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Lesson, run.Status,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"), duration)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	store, err := experiment.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:     %s\n", run.ID)
	fmt.Printf("Lesson:  %s\n", run.Lesson)
	fmt.Printf("Status:  %s\n", run.Status)
	fmt.Printf("Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("Took:    %s\n", run.FinishedAt.Sub(run.CreatedAt).Round(time.Millisecond))
	}

	if len(run.Config) > 0 {
		fmt.Println("\nConfig:")
		keys := make([]string, 0, len(run.Config))
		for k := range run.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-20s %v\n", k, run.Config[k])
		}
	}

	if len(run.Metrics) > 0 {
		fmt.Println("\nFinal metrics:")
		for _, name := range sortedKeys(run.Metrics) {
			fmt.Printf("  %-20s %.4f\n", name, run.Metrics[name])
		}
	}

	history, err := store.Metrics(run.ID)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		fmt.Println("\nEpoch metrics:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  EPOCH\tNAME\tVALUE")
		for _, m := range history {
			fmt.Fprintf(w, "  %d\t%s\t%.4f\n", m.Epoch, m.Name, m.Value)
		}
		return w.Flush()
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
