package editor

import (
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Command is a slash command shown in the command menu.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	// Template is the prompt a custom command expands to. Built-in commands
	// leave it empty.
	Template string
	Custom   bool
}

// BuiltinCommands returns the commands handled by the session itself.
func BuiltinCommands() []Command {
	return []Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Description: "Show help and available commands",
			Usage:       "/help",
		},
		{
			Name:        "clear",
			Aliases:     []string{"c"},
			Description: "Reset the session and clear the screen",
			Usage:       "/clear",
		},
		{
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Exit",
			Usage:       "/quit",
		},
		{
			Name:        "history",
			Description: "Search previous entries",
			Usage:       "/history",
		},
		{
			Name:        "attach",
			Aliases:     []string{"file", "f"},
			Description: "Attach file(s) to the next message",
			Usage:       "/attach <glob|path:start-end>",
		},
		{
			Name:        "detach",
			Description: "Drop pending attachments",
			Usage:       "/detach",
		},
		{
			Name:        "copy",
			Description: "Copy the last answer to the clipboard",
			Usage:       "/copy",
		},
		{
			Name:        "run",
			Description: "Run a shell command and show its output",
			Usage:       "/run <command>",
		},
		{
			Name:        "redraw",
			Description: "Repaint the transcript",
			Usage:       "/redraw",
		},
		{
			Name:        "spacing",
			Description: "Toggle blank lines between blocks",
			Usage:       "/spacing",
		},
		{
			Name:        "model",
			Aliases:     []string{"m"},
			Description: "Show or switch the model",
			Usage:       "/model [name]",
		},
		{
			Name:        "edit",
			Aliases:     []string{"e"},
			Description: "Edit a file in $EDITOR and show the diff",
			Usage:       "/edit <path>",
		},
	}
}

// Registry holds the built-in commands plus user-defined ones.
type Registry struct {
	commands []Command
}

// NewRegistry builds a registry from the built-ins and custom templates
// keyed by command name. A custom command never shadows a built-in.
func NewRegistry(custom map[string]string) *Registry {
	r := &Registry{commands: BuiltinCommands()}
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, key := range names {
		name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "/")
		if name == "" || r.Builtin(name) {
			continue
		}
		r.commands = append(r.commands, Command{
			Name:        name,
			Description: "Custom command",
			Usage:       "/" + name + " [args]",
			Template:    custom[key],
			Custom:      true,
		})
	}
	return r
}

// All returns every command in menu order.
func (r *Registry) All() []Command {
	return r.commands
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	for _, cmd := range r.commands {
		if cmd.Name == name || slices.Contains(cmd.Aliases, name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// Builtin reports whether name is a built-in command or alias.
func (r *Registry) Builtin(name string) bool {
	cmd, ok := r.Lookup(name)
	return ok && !cmd.Custom
}

// IsBuiltinEntry reports whether a submitted entry invokes a built-in
// command. Such entries are skipped by history navigation.
func (r *Registry) IsBuiltinEntry(entry string) bool {
	if !strings.HasPrefix(entry, "/") {
		return false
	}
	fields := strings.Fields(entry)
	return len(fields) > 0 && r.Builtin(fields[0])
}

// Expand turns "/name args" for a custom command into its prompt. The
// template's {{args}} placeholder is replaced, or args are appended.
func (r *Registry) Expand(entry string) (string, bool) {
	fields := strings.Fields(entry)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	cmd, ok := r.Lookup(fields[0])
	if !ok || !cmd.Custom {
		return "", false
	}
	args := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(entry), fields[0]))
	if strings.Contains(cmd.Template, "{{args}}") {
		return strings.ReplaceAll(cmd.Template, "{{args}}", args), true
	}
	if args == "" {
		return cmd.Template, true
	}
	return cmd.Template + "\n\n" + args, true
}

// commandSource implements fuzzy.Source over command names.
type commandSource []Command

func (c commandSource) String(i int) string {
	return c[i].Name
}

func (c commandSource) Len() int {
	return len(c)
}

// Filter returns the commands matching query. A multi-character query that
// names a command or alias exactly returns only that command.
func (r *Registry) Filter(query string) []Command {
	query = strings.ToLower(strings.TrimPrefix(query, "/"))
	if query == "" {
		return r.commands
	}
	if len(query) > 1 {
		if cmd, ok := r.Lookup(query); ok {
			return []Command{cmd}
		}
	}

	var result []Command
	for _, match := range fuzzy.FindFrom(query, commandSource(r.commands)) {
		result = append(result, r.commands[match.Index])
	}
	if len(result) == 0 {
		for _, cmd := range r.commands {
			if strings.HasPrefix(cmd.Name, query) {
				result = append(result, cmd)
			}
		}
	}
	return result
}
