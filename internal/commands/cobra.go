package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/brag/internal/sections"
)

// Handler runs a generated command with its parsed input.
type Handler func(cmd *cobra.Command, meta Meta, in Input) error

// GenerateCobraCommand creates a Cobra command from registry metadata.
// Use, Short, Long, Args, and flags come from the registry; the handler
// decides how the command is executed and printed.
func GenerateCobraCommand(name string, handler Handler) *cobra.Command {
	meta, ok := GetCommandMeta(name)
	if !ok {
		return nil
	}

	use := name
	for _, arg := range meta.Args {
		if arg.Required {
			use += fmt.Sprintf(" <%s>", arg.Name)
		} else {
			use += fmt.Sprintf(" [%s]", arg.Name)
		}
	}

	longDesc := meta.Description
	if meta.LongDesc != "" {
		longDesc = meta.LongDesc
	}
	if len(meta.Examples) > 0 {
		longDesc += "\n\nExamples:\n"
		for _, ex := range meta.Examples {
			longDesc += "  " + ex + "\n"
		}
	}

	minArgs := 0
	maxArgs := len(meta.Args)
	for _, arg := range meta.Args {
		if arg.Required {
			minArgs++
		}
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: meta.Description,
		Long:  longDesc,
	}

	if minArgs == maxArgs {
		if minArgs == 0 {
			cmd.Args = cobra.NoArgs
		} else {
			cmd.Args = cobra.ExactArgs(minArgs)
		}
	} else {
		cmd.Args = cobra.RangeArgs(minArgs, maxArgs)
	}

	for _, flag := range meta.Flags {
		switch flag.Type {
		case FlagTypeBool:
			cmd.Flags().Bool(flag.Name, flag.Default == "true", flag.Description)
		case FlagTypeInt:
			var defaultInt int
			fmt.Sscanf(flag.Default, "%d", &defaultInt)
			cmd.Flags().Int(flag.Name, defaultInt, flag.Description)
		case FlagTypeStringSlice:
			cmd.Flags().StringArray(flag.Name, nil, flag.Description)
		default:
			cmd.Flags().String(flag.Name, flag.Default, flag.Description)
		}

		if flag.Short != "" {
			cmd.Flags().Lookup(flag.Name).Shorthand = flag.Short
		}
	}

	if len(meta.Args) > 0 {
		cmd.ValidArgsFunction = generateCompletionFunc(meta.Args)
	}

	if handler != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return handler(cmd, meta, ParseInput(cmd, meta, args))
		}
	}

	return cmd
}

// ParseInput collects positional args and the flags the user set. Unset
// int flags are omitted so that "not given" differs from zero.
func ParseInput(cmd *cobra.Command, meta Meta, args []string) Input {
	in := Input{Args: make(map[string]string), Flags: make(map[string]interface{})}
	for i, arg := range meta.Args {
		if i < len(args) {
			in.Args[arg.Name] = args[i]
		}
	}
	for _, flag := range meta.Flags {
		f := cmd.Flags().Lookup(flag.Name)
		if f == nil {
			continue
		}
		switch flag.Type {
		case FlagTypeBool:
			val, _ := cmd.Flags().GetBool(flag.Name)
			in.Flags[flag.Name] = val
		case FlagTypeInt:
			if !f.Changed && flag.Default == "" {
				continue
			}
			val, _ := cmd.Flags().GetInt(flag.Name)
			in.Flags[flag.Name] = val
		case FlagTypeStringSlice:
			val, _ := cmd.Flags().GetStringArray(flag.Name)
			in.Flags[flag.Name] = val
		default:
			val, _ := cmd.Flags().GetString(flag.Name)
			in.Flags[flag.Name] = val
		}
	}
	return in
}

// generateCompletionFunc creates a shell completion function based on arg metadata.
func generateCompletionFunc(args []ArgMeta) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, completedArgs []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		argIndex := len(completedArgs)
		if argIndex >= len(args) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		arg := args[argIndex]
		candidates := arg.Completions
		if arg.DynamicComp == "sections" {
			candidates = sections.Default().Paths()
		}

		var matches []string
		for _, c := range candidates {
			if strings.HasPrefix(strings.ToLower(c), strings.ToLower(toComplete)) {
				matches = append(matches, c)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}
