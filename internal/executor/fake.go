package executor

import (
	"context"
	"sync"
)

// Fake is a Runner that records invocations instead of spawning processes.
// Tests configure behavior through the hook and the maps; the zero value
// succeeds at everything and reports every tool available.
type Fake struct {
	mu       sync.Mutex
	Commands []Command

	// Missing lists tool names Available reports as absent.
	Missing map[string]bool

	// Errors maps a command name to the error Run/Output return for it.
	Errors map[string]error

	// Outputs maps a command name to the stdout Output returns for it.
	Outputs map[string]string

	// OnRun, when set, is called for every Run with the recorded command,
	// letting tests fabricate side effects such as downloaded files. Its
	// error takes precedence over Errors.
	OnRun func(cmd Command) error
}

var _ Runner = (*Fake)(nil)

func (f *Fake) record(cmd Command) {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	f.mu.Unlock()
}

func (f *Fake) Run(_ context.Context, cmd Command) error {
	f.record(cmd)
	if f.OnRun != nil {
		if err := f.OnRun(cmd); err != nil {
			return err
		}
	}
	if err, ok := f.Errors[cmd.Name]; ok {
		return err
	}
	return nil
}

func (f *Fake) Output(_ context.Context, cmd Command) (string, error) {
	f.record(cmd)
	if err, ok := f.Errors[cmd.Name]; ok {
		return "", err
	}
	return f.Outputs[cmd.Name], nil
}

func (f *Fake) Available(_ context.Context, name string, _ ...string) bool {
	return !f.Missing[name]
}

// Ran returns the recorded commands with the given name, in order.
func (f *Fake) Ran(name string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.Commands {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
