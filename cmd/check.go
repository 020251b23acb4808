/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fulmenhq/childcheck/pkg/checker"
	"github.com/fulmenhq/childcheck/pkg/config"
	"github.com/fulmenhq/childcheck/pkg/ignore"
	"github.com/fulmenhq/childcheck/pkg/logger"
	"github.com/fulmenhq/childcheck/pkg/report"
	"github.com/fulmenhq/childcheck/pkg/safeio"
	"github.com/fulmenhq/childcheck/pkg/tree"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Check that every manifest declares exactly the children on disk",
		Long: `Check walks the content tree under root (default: the configured root,
or the working directory) one level at a time:

  root       index.json lists the group ids; one <group>.json per group
  group      <group>.json "children" lists <group>/*.md
  guideline  front matter "children" of <group>/<id>.md lists <group>/<id>/*.md

By default only counts are compared and the first failing node stops the
run. Use --mode set to compare ids and --collect-all to report every node.

Exit codes: 0 pass, 3 mismatch, 4 missing directory, 10 bad manifest,
2 configuration error, 7 timeout or interrupt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}

	f := cmd.Flags()
	f.String("config", "", "Config file (default: .childcheck.{yaml,yml,json,toml} in the working directory)")
	f.String("mode", string(checker.ModeCount), "Comparison mode: count or set")
	f.Bool("dedupe", false, "Ignore repeated ids in manifests when counting")
	f.Bool("collect-all", false, "Keep going after a failure and report every problem")
	f.Int("concurrency", 1, "Number of sibling nodes checked at once")
	f.Duration("timeout", 0, "Abort the check after this long (0 disables)")
	f.StringP("format", "f", string(report.FormatText), "Report format: text, markdown or json")
	f.StringP("output", "o", "", "Write the report to a file instead of stdout")
	f.String("root-manifest", checker.DefaultRootManifest, "Manifest file listing the top-level groups")
	f.String("ignore-file", ignore.DefaultFile, "Ignore file relative to the content root")
	f.Bool("gitignore", false, "Also honour .gitignore files under the content root")
	f.StringSlice("ignore", nil, "Extra gitignore-style patterns to exclude")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	output, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load(config.LoadOptions{File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Root = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rootDir, err := safeio.ResolveDir(cfg.Root)
	if err != nil {
		return &tree.ReadError{Dir: cfg.Root, Err: err}
	}
	fsys := osfs.New(rootDir)

	matcher, err := ignore.NewMatcher(fsys, cfg.IgnoreOptions())
	if err != nil {
		return fmt.Errorf("failed to load ignore patterns: %w", err)
	}

	c, err := checker.New(fsys, cfg.ToOptions(), matcher)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	levels := make([]string, len(cfg.Levels))
	for i, l := range cfg.Levels {
		levels[i] = l.Name
	}
	logger.Info("Checking content tree",
		logger.String("root", rootDir),
		logger.Strings("levels", levels),
		logger.String("mode", cfg.Mode),
		logger.String("config", cfg.Source),
		logger.Int("ignore_patterns", matcher.Len()),
		logger.Bool("collect_all", cfg.CollectAll),
		logger.Int("concurrency", cfg.Concurrency))

	rep, checkErr := c.Validate(ctx)
	rep.Root = cfg.Root

	logger.Info("Check finished",
		logger.Int("nodes", rep.NodesChecked),
		logger.Int("failed", rep.FailedNodes()),
		logger.Int("mismatches", len(checker.Mismatches(checkErr))),
		logger.Duration("duration", rep.Duration))

	if err := writeReport(cmd, rep, cfg.OutputFormat(), output); err != nil {
		if checkErr != nil {
			logger.Error("Report not written", logger.Err(err))
			return checkErr
		}
		return err
	}
	return checkErr
}

func writeReport(cmd *cobra.Command, rep *checker.Report, format report.Format, output string) error {
	var buf bytes.Buffer
	if err := report.Render(&buf, rep, format); err != nil {
		return err
	}
	if output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := safeio.WriteFilePreservePerms(output, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", output, err)
	}
	logger.Info("Report written", logger.String("path", output))
	return nil
}
