package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

// Runner executes the external tools the packaging pipeline depends on
// (tar, unzip, rsync). Implementations must run the command to completion
// and return a non-nil error on a non-zero exit.
type Runner interface {
	// Run executes argv[0] with the remaining arguments, with the working
	// directory set to dir ("" means the current directory).
	Run(dir string, argv ...string) error

	// RunShell executes cmdStr through the shell in dir, enabling shell
	// features such as '*' glob expansion.
	RunShell(dir string, cmdStr string) error
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is
// not available.
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh" // fallback
}

func (r *ExecRunner) Run(dir string, argv ...string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	log := logger.Logger()
	log.Debugf("Exec: [%s]", strings.Join(argv, " "))

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	return r.finish(cmd, strings.Join(argv, " "))
}

func (r *ExecRunner) RunShell(dir string, cmdStr string) error {
	log := logger.Logger()
	log.Debugf("Exec: [%s -c %s]", getShell(), cmdStr)

	cmd := exec.Command(getShell(), "-c", cmdStr)
	cmd.Dir = dir
	return r.finish(cmd, cmdStr)
}

func (r *ExecRunner) finish(cmd *exec.Cmd, cmdStr string) error {
	log := logger.Logger()
	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" {
			log.Infof(outputStr)
		}
		return fmt.Errorf("failed to exec %s: %w", cmdStr, err)
	}
	if outputStr != "" {
		log.Debugf(outputStr)
	}
	return nil
}

// IsCommandExist checks if a command exists on the host.
func IsCommandExist(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
