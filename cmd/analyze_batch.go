package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	abFlags  analyzeFlags
	abOutDir string
	abJobs   int
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		c := current()
		dsOpt, err := abFlags.datasetOptions(cmd, c)
		if err != nil {
			return err
		}
		opt, err := abFlags.analysisOptions(cmd, c)
		if err != nil {
			return err
		}
		format, err := abFlags.outputFormat(cmd, c)
		if err != nil {
			return err
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}
		}

		bodies := make([][]byte, len(files))
		warnings := make([][]string, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		if abJobs > 0 {
			g.SetLimit(abJobs)
		}
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				rep, err := analyzeFile(ctx, path, dsOpt, opt)
				if err != nil {
					return err
				}
				body, err := analysis.Render(rep, format)
				if err != nil {
					return err
				}
				bodies[i] = body
				warnings[i] = rep.Warnings
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		total := len(files)
		reserved := map[string]struct{}{}
		for i, path := range files {
			if !abQuiet {
				fmt.Printf("[%d/%d] Analyzed %s\n", i+1, total, filepath.Base(path))
				for _, w := range warnings[i] {
					fmt.Fprintf(os.Stderr, "⚠ Warning: %s: %s\n", filepath.Base(path), w)
				}
			}
			if abOutDir == "" {
				if !abQuiet {
					if _, err := cmd.OutOrStdout().Write(bodies[i]); err != nil {
						return err
					}
				}
				continue
			}
			base := filepath.Base(path)
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			outFile := uniqueOutputPath(abOutDir, stem, analysis.Extension(format), reserved)
			if filepath.Base(outFile) != stem+analysis.Extension(format) && !abQuiet {
				fmt.Printf("⚠ Detected existing report, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, bodies[i]); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Printf("✓ Wrote analysis to %s\n", outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths, de-duplicated and sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniqueOutputPath returns dir/stem+ext, or dir/stem__N+ext when that name is
// taken on disk or already reserved in this run.
func uniqueOutputPath(dir, stem, ext string, reserved map[string]struct{}) string {
	free := func(p string) bool {
		if _, ok := reserved[p]; ok {
			return false
		}
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}
	out := filepath.Join(dir, stem+ext)
	for idx := 2; !free(out); idx++ {
		out = filepath.Join(dir, fmt.Sprintf("%s__%d%s", stem, idx, ext))
	}
	reserved[out] = struct{}{}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory to write one report per input")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 0, "files analyzed concurrently (0 = unlimited)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
