// Package msg holds the launcher's diagnostics and its error taxonomy.
package msg

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/liamg/tml"
)

var logger = log.New(os.Stderr, "", 0)

// SetOutput redirects every diagnostic line, mostly for tests.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

func Info(format string, a ...any) {
	logger.Print(tml.Sprintf("<blue><bold>INF:</bold></blue> ") + fmt.Sprintf(format, a...))
}

func Warn(format string, a ...any) {
	logger.Print(tml.Sprintf("<yellow><bold>WRN:</bold></yellow> ") + fmt.Sprintf(format, a...))
}

func Error(format string, a ...any) {
	logger.Print(tml.Sprintf("<red><bold>ERR:</bold></red> ") + fmt.Sprintf(format, a...))
}

// Fatal prints err and terminates the process with status 1.
func Fatal(err error) {
	Error("%v", err)
	os.Exit(1)
}
