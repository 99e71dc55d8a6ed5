package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okarpov/athanor/internal/llm"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/resolve"
	"github.com/okarpov/athanor/internal/runner"
	"github.com/okarpov/athanor/internal/search"
)

var (
	outputDir      string
	outputFormat   string
	runTimeout     time.Duration
	expand         bool
	threshold      float64
	resolverFile   string
	similarityFile string
	force          bool
	noCache        bool
	llmEnabled     bool
	llmModel       string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <searches.toml> <identifiers-file>",
	Short: "Run a batch of searches over a list of compounds",
	Long: `Runs every search defined in a TOML configuration over every
compound in the identifier file (one identifier per line, # comments
allowed, "-" for stdin). Each search writes one table named after its
search key; the run always ends with report.json and report.md.

Searches whose table file already exists are skipped unless --force is
given, so an interrupted batch can be resumed.

Example:
  athanor search searches.toml compounds.txt
  athanor search searches.toml compounds.txt --out ./results --format tsv
  athanor search searches.toml - --expand --similarity neighbors.tsv`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&outputDir, "out", "", "output directory (default from config)")
	searchCmd.Flags().StringVar(&outputFormat, "format", "", "table format: csv or tsv (default from config)")
	searchCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Hour, "total timeout for the run")
	searchCmd.Flags().BoolVar(&expand, "expand", false, "expand inputs to structurally similar compounds")
	searchCmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold in [0,1] (default from config)")
	searchCmd.Flags().StringVar(&resolverFile, "resolver", "", "TSV file mapping identifiers to compounds")
	searchCmd.Flags().StringVar(&similarityFile, "similarity", "", "TSV file of similarity neighbors")
	searchCmd.Flags().BoolVar(&force, "force", false, "rerun searches whose table file already exists")
	searchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	searchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "append an LLM narrative to report.md")
	searchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runSearch(cmd *cobra.Command, args []string) error {
	configPath, idPath := args[0], args[1]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := loadConfig()
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if cfg.Output.Format != "csv" && cfg.Output.Format != "tsv" {
		return fmt.Errorf("unknown output format %q (want csv or tsv)", cfg.Output.Format)
	}
	if expand {
		cfg.Similarity.Expand = true
	}
	if threshold > 0 {
		cfg.Similarity.Threshold = threshold
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmEnabled && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	reg, _, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	multi, err := search.LoadMultiFile(reg, configPath)
	if err != nil {
		return err
	}

	identifiers, err := runner.ReadIdentifierFile(idPath)
	if err != nil {
		return err
	}
	if len(identifiers) == 0 {
		return fmt.Errorf("no identifiers in %s", idPath)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	searches := multi.Searches
	if !force {
		searches = skipDone(searches, cfg)
	}
	if len(searches) == 0 {
		fmt.Fprintf(os.Stderr, "All tables exist; nothing to do (use --force to rerun)\n")
		return nil
	}

	resolver, similarity, err := buildResolvers(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Athanor: %d searches x %d identifiers -> %s\n",
		len(searches), len(identifiers), cfg.Output.Dir)
	for _, s := range searches {
		fmt.Fprintf(os.Stderr, "  %s (%s): %s via %s\n", s.Key, s.Class, s.Type, s.Source.Name())
	}

	run := &runner.Runner{
		Resolver:   resolver,
		Similarity: similarity,
		Config:     cfg,
		Progress:   os.Stderr,
	}
	tables, report, err := run.Run(ctx, identifiers, searches)
	if err != nil {
		return err
	}

	for _, s := range searches {
		path := tablePath(cfg, s.Key)
		if err := tables[s.Key].WriteFile(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "  wrote %s\n", path)
		}
	}

	if err := writeReports(ctx, cfg, report); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Done: %d rows, %d failures\n", report.TotalRows(), report.TotalFailures())
	if report.Cancelled {
		fmt.Fprintf(os.Stderr, "Run was cancelled; tables are partial\n")
	}
	return nil
}

// skipDone drops searches whose table file already exists.
func skipDone(searches []*search.Search, cfg *model.Config) []*search.Search {
	var todo []*search.Search
	for _, s := range searches {
		path := tablePath(cfg, s.Key)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "- %s: %s exists, skipping\n", s.Key, path)
			continue
		}
		todo = append(todo, s)
	}
	return todo
}

func buildResolvers(cfg *model.Config) (resolve.Resolver, resolve.Similarity, error) {
	var resolver resolve.Resolver = resolve.Passthrough{}
	if resolverFile != "" {
		r, err := resolve.LoadResolverFile(resolverFile)
		if err != nil {
			return nil, nil, err
		}
		resolver = r
	}

	var similarity resolve.Similarity
	if similarityFile != "" {
		s, err := resolve.LoadSimilarityFile(similarityFile)
		if err != nil {
			return nil, nil, err
		}
		similarity = s
	}
	if cfg.Similarity.Expand && similarity == nil {
		return nil, nil, fmt.Errorf("--expand requires --similarity <file>")
	}
	return resolver, similarity, nil
}

func tablePath(cfg *model.Config, key string) string {
	return filepath.Join(cfg.Output.Dir, sanitizeFilename(key)+"."+cfg.Output.Format)
}

func writeReports(ctx context.Context, cfg *model.Config, report *model.RunReport) error {
	if err := report.WriteJSON(filepath.Join(cfg.Output.Dir, "report.json")); err != nil {
		return err
	}

	md := report.Markdown()
	if provider, err := llm.NewProvider(cfg.LLM); err != nil {
		fmt.Fprintf(os.Stderr, "? llm disabled: %v\n", err)
	} else if provider != nil {
		resp, err := provider.Summarize(ctx, llm.SummarizeRequest{Report: report})
		if err != nil {
			fmt.Fprintf(os.Stderr, "? llm narrative failed: %v\n", err)
		} else {
			md += "\n## Narrative\n\n" + resp.Summary + "\n"
		}
	}

	path := filepath.Join(cfg.Output.Dir, "report.md")
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// sanitizeFilename makes a search key safe to use as a file name.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
