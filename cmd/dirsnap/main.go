package main

import (
	"fmt"
	"os"
	"strings"

	"dirsnap/internal/app"
	"dirsnap/internal/config"
	"dirsnap/internal/model"
	"dirsnap/internal/snapshot"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Compare").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "dirsnap",
	Short: "Directory snapshot and drift detection tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new machine ID for this host
		machineID := uuid.New().String()

		cfg := config.NewConfig(machineID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Machine ID: %s\n", machineID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Machine ID: %s\n", cfg.MachineID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Catalog:    %s\n", cfg.Catalog.Type)
		fmt.Printf("Archive:    %s\n", cfg.Archive.Type)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan [DIR]",
	Short: "Snapshot a directory tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		exclude, _ := cmd.Flags().GetStringArray("exclude")
		maxDepth, _ := cmd.Flags().GetInt("max-depth")
		machineID, _ := cmd.Flags().GetString("machine-id")
		metaPairs, _ := cmd.Flags().GetStringArray("meta")

		metadata, err := parseMetadata(metaPairs)
		if err != nil {
			return err
		}

		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		rec, err := a.Scan(output, target, snapshot.Options{
			Exclude:   exclude,
			MaxDepth:  maxDepth,
			MachineID: machineID,
			Metadata:  metadata,
		})
		if err != nil {
			return fmt.Errorf("scanning: %w", err)
		}

		fmt.Printf("Snapshot %s written to %s (%d entries)\n", rec.ID, rec.Path, rec.EntryCount)
		return nil
	},
}

// parseMetadata splits key=value flag values into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", p)
		}
		metadata[key] = value
	}
	return metadata, nil
}

// compare command
var compareCmd = &cobra.Command{
	Use:   "compare SNAPSHOT_A SNAPSHOT_B",
	Short: "Compare two snapshots of the same root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Compare")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Compare(args[0], args[1])
		if err != nil {
			return fmt.Errorf("comparing: %w", err)
		}

		printReport(report)
		return nil
	},
}

func printReport(r *model.Report) {
	fmt.Printf("Period: %s .. %s\n\n",
		r.Period.Start.Format("2006-01-02 15:04:05.000"),
		r.Period.End.Format("2006-01-02 15:04:05.000"))

	for _, e := range r.Added {
		fmt.Printf("A  %s\n", e.Path)
	}
	for _, e := range r.Deleted {
		fmt.Printf("D  %s\n", e.Path)
	}
	for _, m := range r.Moved {
		fmt.Printf("R  %s -> %s\n", m.Src.Path, m.Dst.Path)
	}
	for _, c := range r.ContentChanged {
		fmt.Printf("C  %s\n", c.NewValue.Path)
	}
	for _, c := range r.MetadataChanged {
		fmt.Printf("M  %s\n", c.NewValue.Path)
	}

	total := len(r.Added) + len(r.Deleted) + len(r.Moved) + len(r.ContentChanged) + len(r.MetadataChanged)
	if total == 0 {
		fmt.Println("No changes.")
	} else {
		fmt.Printf("\n%d added, %d deleted, %d moved, %d content, %d metadata\n",
			len(r.Added), len(r.Deleted), len(r.Moved), len(r.ContentChanged), len(r.MetadataChanged))
	}
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate SNAPSHOT",
	Short: "Check a snapshot file for well-formedness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Validate")
		if err != nil {
			return err
		}
		defer a.Close()

		valid, err := a.Validate(args[0])
		if err != nil {
			return fmt.Errorf("validating: %w", err)
		}

		if !valid {
			fmt.Printf("%s: invalid\n", args[0])
			a.Close()
			os.Exit(1)
		}
		fmt.Printf("%s: valid\n", args[0])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, op := range ops {
			finished := "-"
			if op.FinishedAt.Valid {
				finished = op.FinishedAt.Time.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%-5d %-12s %-8s started %s finished %s\n",
				op.ID, op.Operation, op.Status,
				op.StartedAt.Format("2006-01-02 15:04:05"), finished)
		}
		return nil
	},
}

// snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List recorded snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("Snapshots")
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.Snapshots(limit)
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No snapshots recorded.")
			return nil
		}
		for _, rec := range recs {
			fmt.Printf("%s  %s  %s (%d entries, machine %s)\n",
				rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.RootPath, rec.EntryCount, rec.MachineID)
		}
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive SNAPSHOT",
	Short: "Store a snapshot file in the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Archive")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.ArchiveSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("archiving: %w", err)
		}

		fmt.Printf("Archived as %s\n", id)
		return nil
	},
}

// fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch ID DEST",
	Short: "Retrieve an archived snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Fetch")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.FetchSnapshot(args[0], args[1]); err != nil {
			return fmt.Errorf("fetching: %w", err)
		}

		fmt.Printf("Fetched %s to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	scanCmd.Flags().StringP("output", "o", "", "snapshot output file (required)")
	scanCmd.MarkFlagRequired("output")
	scanCmd.Flags().StringArrayP("exclude", "e", nil, "exclusion rule (exact path or glob pattern), repeatable")
	scanCmd.Flags().Int("max-depth", -1, "maximum recursion depth (-1 = unbounded)")
	scanCmd.Flags().String("machine-id", "", "override the configured machine ID")
	scanCmd.Flags().StringArray("meta", nil, "extra header metadata as key=value, repeatable")

	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of operations to show")
	snapshotsCmd.Flags().IntP("limit", "n", 20, "maximum number of snapshots to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(fetchCmd)
}
