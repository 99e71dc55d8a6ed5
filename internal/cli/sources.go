package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okarpov/athanor/internal/annotate"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the available annotation types and their options",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Cache.Enabled = false
	reg, _, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSOURCE\tOPTIONS")
	for _, typ := range reg.Types() {
		src, err := reg.Lookup(typ)
		if err != nil {
			return err
		}
		opts := strings.Join(src.RecognizedOptions(), ", ")
		if opts == "" {
			opts = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", typ, src.Name(), opts)
	}
	for _, meta := range []annotate.Type{annotate.TypeMetaTargets, annotate.TypeMetaAll} {
		members, err := reg.Expand(meta)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\texpands to %d types\t-\n", meta, len(members))
	}
	return w.Flush()
}
