// Package login registers pasta to start its session when the user logs
// in.
package login

import (
	"errors"
	"fmt"
	"os"
)

var ErrUnsupported = errors.New("start at login is not supported on this platform")

// Label names the login item on every platform.
const Label = "dev.pasta.agent"

// command is what the login item runs: the current executable's run
// command, carrying PASTA_HOME when set.
func command() (exe string, home string, err error) {
	exe, err = os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, os.Getenv("PASTA_HOME"), nil
}
