package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/brag/internal/atomicfile"
	"github.com/aidanlsb/brag/internal/commands"
	"github.com/aidanlsb/brag/internal/config"
	"github.com/aidanlsb/brag/internal/document"
	"github.com/aidanlsb/brag/internal/paths"
	"github.com/aidanlsb/brag/internal/ui"
)

var initSave bool

type initResult struct {
	WorkspaceRoot   string `json:"workspace_root"`
	Template        string `json:"template"`
	TemplateCreated bool   `json:"template_created"`
	ConfigPath      string `json:"config_path,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Set up a workspace with the default template",
	Long: `Creates the Templates and BragDocuments directories and writes the default
brag document template. An existing template is never overwritten.

With --save the workspace is recorded as workspace_root in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		} else if root, err := getConfig().ResolveWorkspace(workspaceFlag); err == nil {
			dir = root
		}
		res, err := initWorkspace(paths.ExpandHome(dir))
		if err != nil {
			return reportError(err)
		}

		if initSave {
			c := getConfig()
			c.WorkspaceRoot = res.WorkspaceRoot
			res.ConfigPath = config.ResolveConfigPath(configPath)
			if err := config.SaveTo(res.ConfigPath, c); err != nil {
				return handleError(codeConfigInvalid, err, "")
			}
		}

		if isJSONOutput() {
			outputSuccess(commands.Output{Data: res})
			return nil
		}
		if res.TemplateCreated {
			fmt.Println(ui.Successf("Wrote template %s", ui.FilePath(res.Template)))
		} else {
			fmt.Printf("Keeping existing template %s\n", ui.FilePath(res.Template))
		}
		if res.ConfigPath != "" {
			fmt.Println(ui.Successf("Saved workspace to %s", ui.FilePath(res.ConfigPath)))
		}
		return nil
	},
}

func initWorkspace(dir string) (initResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return initResult{}, fmt.Errorf("resolve workspace: %w", err)
	}
	for _, sub := range []string{paths.TemplatesDir, paths.DocumentsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return initResult{}, fmt.Errorf("create %s: %w", sub, err)
		}
	}

	res := initResult{WorkspaceRoot: root, Template: paths.DefaultTemplatePath(root)}
	err = atomicfile.CreateExclusive(res.Template, document.DefaultTemplate(), 0o644)
	switch {
	case errors.Is(err, atomicfile.ErrExists):
		return res, nil
	case err != nil:
		return initResult{}, fmt.Errorf("write template: %w", err)
	}
	res.TemplateCreated = true
	return res, nil
}

func init() {
	initCmd.Flags().BoolVar(&initSave, "save", false, "Record the workspace in the config file")
	rootCmd.AddCommand(initCmd)
}
