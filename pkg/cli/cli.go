package cli

import (
	"fmt"
	"os"
	"sort"
)

var commands = map[string]Command{}

func Register(cmd Command) {
	commands[cmd.Name] = cmd
}

func showUsage() {
	fmt.Println("Usage: porlarr <command> [options]")
	fmt.Println("\nAvailable Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %s\n", name, commands[name].Description)
	}
	fmt.Println("\nUse 'porlarr <command> --help' for more information about a command")
}

// Execute runs the command named by args[0]. No arguments starts the server.
func Execute(args []string) error {
	if len(args) == 0 {
		args = []string{"serve"}
	}

	commandName := args[0]
	command, exists := commands[commandName]
	if !exists {
		if commandName == "--help" || commandName == "-h" || commandName == "help" {
			showUsage()
			return nil
		}
		return fmt.Errorf("unknown command %q", commandName)
	}

	return command.Execute(args[1:])
}

// Main is the process entry point.
func Main() {
	if err := Execute(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
