package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shardci/internal/app"
	"shardci/internal/errors"
	"shardci/internal/parser"
	"shardci/internal/partition"
	"shardci/internal/prepare"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "shardci",
	Short:   "ShardCI - Containerized test-execution orchestrator",
	Version: version,
	Long: `ShardCI partitions a large set of test targets into balanced groups, runs
each group inside an isolated Docker container against a pinned build image,
and reduces the per-group outcomes into a single pass/fail verdict.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all test groups for a manifest",
	Long: `Run executes the complete ShardCI workflow: partition the manifest's test
targets, build the test environment image when configured, launch one container
per partition, and report a single pass/fail verdict for the whole run.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		parallelism, _ := cmd.Flags().GetInt("parallelism")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		skipPrepare, _ := cmd.Flags().GetBool("skip-prepare")

		// An interrupt cancels the run: outstanding containers are stopped
		// and reaped, and the partial run reads as failure.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := app.RunOptions{
			Parallelism: parallelism,
			DryRun:      dryRun,
			SkipPrepare: skipPrepare,
		}

		if err := app.Run(ctx, file, opts); err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}
	},
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the test environment image for a manifest",
	Long: `Prepare builds and tags the per-team test environment image without running
any test group, so the image can be warmed ahead of a run.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		m, err := parser.Parse(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		containerRuntime, err := app.NewRuntimeFactory().GetRuntime(app.RuntimeDocker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating container runtime: %s\n", err)
			os.Exit(1)
		}

		fmt.Printf("Building test environment image: %s\n", m.Spec.Image.Ref())

		preparer := prepare.NewImagePreparer(containerRuntime)
		if err := preparer.Prepare(cmd.Context(), m); err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		fmt.Printf("Successfully built test environment image: %s\n", m.Spec.Image.Ref())
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate the Docker daemon against the image registry",
	Long: `Login establishes registry credentials before a run. The password is read
from stdin so it never appears in shell history or process listings.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry, _ := cmd.Flags().GetString("registry")
		username, _ := cmd.Flags().GetString("username")
		if registry == "" || username == "" {
			fmt.Fprintln(os.Stderr, "Error: --registry and --username flags are required")
			os.Exit(1)
		}

		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil && password == "" {
			fmt.Fprintf(os.Stderr, "Error reading password from stdin: %s\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(password, "\r\n")

		containerRuntime, err := app.NewRuntimeFactory().GetRuntime(app.RuntimeDocker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating container runtime: %s\n", err)
			os.Exit(1)
		}

		if err := containerRuntime.Login(cmd.Context(), registry, username, password); err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		fmt.Printf("Successfully authenticated against %s\n", registry)
	},
}

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Print the target partitioning for a manifest without running anything",
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			fmt.Fprintln(os.Stderr, "Error: --file flag is required")
			os.Exit(1)
		}

		m, err := parser.Parse(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		parallelism, _ := cmd.Flags().GetInt("parallelism")
		if parallelism <= 0 {
			parallelism = m.Spec.Parallelism
		}

		partitions, err := partition.Split(m.Spec.Targets, parallelism)
		if err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		for i, targets := range partitions {
			fmt.Printf("group %d (%d targets): %s\n", i, len(targets), strings.Join(targets, " "))
		}
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Path to the test run manifest YAML file (required)")
	runCmd.Flags().IntP("parallelism", "p", 0, "Override the manifest's parallelism")
	runCmd.Flags().Bool("dry-run", false, "Print the execution plan without starting any containers")
	runCmd.Flags().Bool("skip-prepare", false, "Skip the environment preparation stage")
	if err := runCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for run command", "error", err)
	}
	rootCmd.AddCommand(runCmd)

	prepareCmd.Flags().StringP("file", "f", "", "Path to the test run manifest YAML file (required)")
	if err := prepareCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for prepare command", "error", err)
	}
	rootCmd.AddCommand(prepareCmd)

	loginCmd.Flags().String("registry", "", "Registry host to authenticate against (required)")
	loginCmd.Flags().StringP("username", "u", "", "Registry username (required)")
	rootCmd.AddCommand(loginCmd)

	partitionCmd.Flags().StringP("file", "f", "", "Path to the test run manifest YAML file (required)")
	partitionCmd.Flags().IntP("parallelism", "p", 0, "Override the manifest's parallelism")
	if err := partitionCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for partition command", "error", err)
	}
	rootCmd.AddCommand(partitionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
