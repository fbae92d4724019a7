// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aidanlsb/brag/internal/audit"
	"github.com/aidanlsb/brag/internal/brag"
	"github.com/aidanlsb/brag/internal/config"
	"github.com/aidanlsb/brag/internal/logging"
	"github.com/aidanlsb/brag/internal/model"
	"github.com/aidanlsb/brag/internal/ui"
)

var (
	// Global flags
	nameFlag      string
	yearFlag      int
	workspaceFlag string
	configPath    string
	verbose       bool

	// Resolved values
	cfg     *config.Config
	logger  = zap.NewNop()
	service *brag.Service

	// now is replaced in tests.
	now = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "brag",
	Short: "brag - keep a yearly brag document",
	Long: `brag maintains a yearly "brag document": a Markdown file listing your
accomplishments under a fixed set of sections.

Every entry gets a stable id kept in an index next to the document, so
entries can be changed or removed reliably even after you edit the file
by hand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		loaded, err := loadGlobalConfig()
		if err != nil {
			return handleError(codeConfigInvalid, err, "Fix the config file or pass --config")
		}
		cfg = loaded
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		logger = logging.New(verbose)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return execute(nil)
}

// execute runs the CLI with args, or os.Args when args is nil.
func execute(args []string) error {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	defer closeService()

	err := rootCmd.Execute()
	if err != nil && !errAlreadyReported(err) {
		if jsonOutput {
			outputError(err)
		} else {
			fmt.Fprintln(rootCmd.ErrOrStderr(), ui.Error(err.Error()))
			if s := suggestionFor(err); s != "" {
				fmt.Fprintln(rootCmd.ErrOrStderr(), ui.Hint(s))
			}
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nameFlag, "name", "", "Full name of the document owner (default: name from config)")
	rootCmd.PersistentFlags().IntVar(&yearFlag, "year", 0, "Document year (default: current year)")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace directory (overrides $BRAG_WORKSPACE and config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug details to stderr")
}

func loadGlobalConfig() (*config.Config, error) {
	var loaded *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loaded, err = config.LoadFrom(config.ResolveConfigPath(configPath))
	} else {
		loaded, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = &config.Config{}
	}
	return loaded, nil
}

func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

func closeService() {
	_ = logger.Sync()
	if service == nil {
		return
	}
	if err := service.Close(); err != nil {
		logger.Warn("close service", zap.Error(err))
	}
	service = nil
}

// getService builds the document service for the resolved workspace.
func getService() (*brag.Service, error) {
	if service != nil {
		return service, nil
	}
	root, err := getConfig().ResolveWorkspace(workspaceFlag)
	if err != nil {
		return nil, &codedError{
			code:       codeWorkspaceNotSet,
			err:        err,
			suggestion: "Pass --workspace, set $" + config.WorkspaceEnv + ", or run 'brag init <dir> --save'",
		}
	}
	return newService(root)
}

// newService builds the service with root as the default workspace. An
// empty root requires every request to name its workspace.
func newService(root string) (*brag.Service, error) {
	c := getConfig()
	timeout, err := c.LockTimeoutDuration()
	if err != nil {
		return nil, &codedError{code: codeConfigInvalid, err: err}
	}

	service = brag.New(brag.Options{
		WorkspaceRoot: root,
		TemplatePath:  c.Template,
		LockTimeout:   timeout,
		// Opened on first write; with an empty root it only carries the
		// enabled setting to per-request workspaces.
		History: audit.New(root, c.HistoryEnabled()),
		Logger:  logger,
	})
	logger.Debug("workspace resolved", zap.String("root", root))
	return service, nil
}

// documentRef resolves --name and --year against the config.
func documentRef() (brag.DocumentRef, error) {
	name := strings.TrimSpace(nameFlag)
	if name == "" {
		name = strings.TrimSpace(getConfig().Name)
	}
	if name == "" {
		return brag.DocumentRef{}, model.Errorf(model.KindInvalidInput, "no name given; pass --name or set name in the config")
	}
	year := yearFlag
	if year == 0 {
		year = now().Year()
	}
	return brag.DocumentRef{FullName: name, Year: year}, nil
}
