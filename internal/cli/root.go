// Package cli wires the athanor commands. Commands print progress to
// stderr and reserve stdout for data, so tables can be piped.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okarpov/athanor/internal/cache"
	"github.com/okarpov/athanor/internal/fetch"
	"github.com/okarpov/athanor/internal/model"
	"github.com/okarpov/athanor/internal/source"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "athanor",
	Short: "Athanor - compound annotation aggregation from public databases",
	Long: `Athanor collects annotations about chemical compounds from public
databases (ChEMBL, PubChem, the IUPHAR/BPS Guide to Pharmacology, HMDB)
and normalizes everything into one shared table schema of semantic
triples: compound, predicate, object.

Every row keeps its provenance: which search produced it, from which
database, under which search key. Partial failures never abort a run;
they are recorded next to the data they are missing from.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("athanor v0.3.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.athanor/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and ATHANOR_* environment variables.
// A local .env file is loaded first so API keys need not live in the shell
// profile.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.athanor")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("ATHANOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file over the built-in defaults.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if viper.IsSet("http.timeout") {
		cfg.HTTP.Timeout = viper.GetDuration("http.timeout")
	}
	if viper.IsSet("http.user_agent") {
		cfg.HTTP.UserAgent = viper.GetString("http.user_agent")
	}
	if viper.IsSet("http.max_body_bytes") {
		cfg.HTTP.MaxBodyBytes = viper.GetInt64("http.max_body_bytes")
	}
	if viper.IsSet("http.http_proxy") {
		cfg.HTTP.HTTPProxy = viper.GetString("http.http_proxy")
	}
	if viper.IsSet("http.https_proxy") {
		cfg.HTTP.HTTPSProxy = viper.GetString("http.https_proxy")
	}
	if viper.IsSet("http.insecure_tls") {
		cfg.HTTP.InsecureTLS = viper.GetBool("http.insecure_tls")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.backend") {
		cfg.Cache.Backend = viper.GetString("cache.backend")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("concurrency.workers") {
		cfg.Concurrency.Workers = viper.GetInt("concurrency.workers")
	}
	if viper.IsSet("concurrency.per_source") {
		cfg.Concurrency.PerSource = viper.GetInt("concurrency.per_source")
	}
	if viper.IsSet("rate_limit.requests_per_second") {
		cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("rate_limit.requests_per_second")
	}
	if viper.IsSet("rate_limit.burst") {
		cfg.RateLimit.Burst = viper.GetInt("rate_limit.burst")
	}
	if viper.IsSet("similarity.expand") {
		cfg.Similarity.Expand = viper.GetBool("similarity.expand")
	}
	if viper.IsSet("similarity.threshold") {
		cfg.Similarity.Threshold = viper.GetFloat64("similarity.threshold")
	}
	if viper.IsSet("output.dir") {
		cfg.Output.Dir = viper.GetString("output.dir")
	}
	if viper.IsSet("output.format") {
		cfg.Output.Format = viper.GetString("output.format")
	}
	cfg.Output.Verbose = viper.GetBool("output.verbose")
	if viper.IsSet("llm.provider") {
		cfg.LLM.Provider = viper.GetString("llm.provider")
	}
	if viper.IsSet("llm.model") {
		cfg.LLM.Model = viper.GetString("llm.model")
	}
	if viper.IsSet("llm.base_url") {
		cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	}
	cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")

	return cfg
}

// buildRegistry assembles the HTTP stack and the adapter registry.
func buildRegistry(cfg *model.Config) (*source.Registry, cache.Cache, error) {
	store, err := cache.FromConfig(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	limiter := fetch.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	client := fetch.NewClient(cfg.HTTP, store, limiter)
	return source.NewRegistry(client), store, nil
}
