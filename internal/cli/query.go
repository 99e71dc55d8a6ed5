package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okarpov/athanor/internal/annotate"
	"github.com/okarpov/athanor/internal/runner"
	"github.com/okarpov/athanor/internal/search"
	"github.com/okarpov/athanor/internal/source"
)

var (
	queryKey     string
	queryClass   string
	queryOpts    []string
	queryTimeout time.Duration
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <type> <identifier>...",
	Short: "Run one annotation type against compounds and print the table",
	Long: `Runs a single annotation type over the given compound identifiers
and writes the result table to stdout as CSV. Options are passed as
repeated --opt key=value flags; list values are comma-separated.

Example:
  athanor query chembl:activity QVGXLLKOCUKJST-UHFFFAOYSA-N
  athanor query chembl:indication CHEMBL25 --opt min_phase=3
  athanor query pubchem:literature <inchikey> --opt kinds=gene,disease`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryKey, "key", "", "search key stamped on every row (default: the type)")
	queryCmd.Flags().StringVar(&queryClass, "class", "", "search class stamped on every row (default: the key)")
	queryCmd.Flags().StringArrayVar(&queryOpts, "opt", nil, "search option as key=value (repeatable)")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 15*time.Minute, "total timeout for the query")
	queryCmd.Flags().StringVar(&resolverFile, "resolver", "", "TSV file mapping identifiers to compounds")
	queryCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
}

func runQuery(cmd *cobra.Command, args []string) error {
	typ := annotate.Type(args[0])
	identifiers := args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	cfg := loadConfig()
	if noCache {
		cfg.Cache.Enabled = false
	}

	reg, _, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	opts, err := parseOpts(queryOpts)
	if err != nil {
		return err
	}

	key := queryKey
	if key == "" {
		key = string(typ)
	}
	searches, err := search.New(reg, key, queryClass, typ, opts)
	if err != nil {
		return err
	}

	resolver, _, err := buildResolvers(cfg)
	if err != nil {
		return err
	}

	run := &runner.Runner{
		Resolver: resolver,
		Config:   cfg,
		Progress: os.Stderr,
	}
	tables, report, err := run.Run(ctx, identifiers, searches)
	if err != nil {
		return err
	}

	for _, s := range searches {
		if err := tables[s.Key].Write(os.Stdout, ','); err != nil {
			return err
		}
	}
	if n := report.TotalFailures(); n > 0 {
		fmt.Fprintf(os.Stderr, "%d failures; see above\n", n)
	}
	return nil
}

// parseOpts turns --opt key=value flags into typed search options. Values
// parse as bool, int, float, comma-separated list, then string, in that
// order.
func parseOpts(pairs []string) (source.Options, error) {
	opts := make(source.Options, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("bad --opt %q: want key=value", pair)
		}
		opts[key] = parseOptValue(value)
	}
	return opts, nil
}

func parseOptValue(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			items = append(items, parseOptValue(strings.TrimSpace(p)))
		}
		return items
	}
	return value
}
