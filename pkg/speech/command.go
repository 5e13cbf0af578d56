package speech

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	log "github.com/echocat/slf4g"
	"github.com/shirou/gopsutil/process"

	"github.com/blaubaer/clip-announcer/pkg/common"
)

const sayPath = "/usr/bin/say"

var (
	ErrNoCommand = errors.New("no speech command available")

	fallbackCommands = []string{"say", "espeak-ng", "espeak", "spd-say"}

	lookPath   = exec.LookPath
	fileExists = func(fn string) bool {
		fi, err := os.Stat(fn)
		return err == nil && !fi.IsDir()
	}
)

// ResolveCommand returns configured if present. Otherwise the first speech
// command available on this system is returned.
func ResolveCommand(configured string) (string, error) {
	if configured != "" {
		result, err := lookPath(configured)
		if err != nil {
			return "", fmt.Errorf("cannot use speech command %q: %w", configured, err)
		}
		return result, nil
	}
	if fileExists(sayPath) {
		return sayPath, nil
	}
	for _, candidate := range fallbackCommands {
		if result, err := lookPath(candidate); err == nil {
			return result, nil
		}
	}
	return "", fmt.Errorf("%w; tried %s and %v", ErrNoCommand, sayPath, fallbackCommands)
}

// CommandLauncher starts Command with the text as its only argument. Every
// line the command writes to stderr is logged.
type CommandLauncher struct {
	Command string
}

func (this *CommandLauncher) Launch(text string, onExit func(error)) (Process, error) {
	stderr := common.NewLineWriter(10, 1024)
	stderr.OnNewLine = func(line string) {
		if line == "" {
			return
		}
		log.With("command", this.Command).
			With("line", line).
			Warn("Speech command reported.")
	}

	cmd := exec.Command(this.Command, text)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cannot start speech command %q: %w", this.Command, err)
	}

	go func() {
		err := cmd.Wait()
		stderr.Flush()
		onExit(err)
	}()

	return &commandProcess{cmd}, nil
}

type commandProcess struct {
	cmd *exec.Cmd
}

func (this *commandProcess) Pid() int {
	return this.cmd.Process.Pid
}

// Terminate succeeds as well if the process has already ended.
func (this *commandProcess) Terminate() error {
	p, err := process.NewProcess(int32(this.Pid()))
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot find speech process #%d: %w", this.Pid(), err)
	}
	if err := p.Terminate(); err != nil {
		if running, rErr := p.IsRunning(); rErr == nil && !running {
			return nil
		}
		return fmt.Errorf("cannot terminate speech process #%d: %w", this.Pid(), err)
	}
	return nil
}

// ExitCode extracts the exit code of a finished command out of err. If err
// does not describe a finished command ok is false.
func ExitCode(err error) (code int, ok bool) {
	if v, isExit := common.AsError[*exec.ExitError](err); isExit {
		return v.ExitCode(), true
	}
	return 0, false
}
