// Package log is the leveled logger of the oracle node. Output goes to the
// console until ResetLogger redirects it to a file under the node home.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

var (
	customLog logger
	debugOn   atomic.Bool
)

type logger struct {
	debug *log.Logger
	info  *log.Logger
	err   *log.Logger
	dir   string
}

func init() {
	InitLogger()
}

func InitLogger() {
	customLog = logger{
		debug: log.New(os.Stdout, "[DEBUG] ", 0),
		info:  log.New(os.Stdout, "[INFOM] ", 0),
		err:   log.New(os.Stderr, "[ERROR] ", 0),
		dir:   "",
	}
	debugOn.Store(true)
}

// SetLevel enables debug output for "debug" and disables it for any other
// level.
func SetLevel(level string) {
	debugOn.Store(level == "debug")
}

// SetOutput sends every level to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	customLog.debug.SetOutput(w)
	customLog.info.SetOutput(w)
	customLog.err.SetOutput(w)
}

func ResetLogger(oracleHome string) error {
	if oracleHome == "" {
		osHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		customLog.dir = filepath.Join(osHome, ".oracled", "logs")
	} else {
		customLog.dir = filepath.Join(oracleHome, "logs")
	}

	if err := os.MkdirAll(customLog.dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", customLog.dir, err)
	}

	format := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	name := fmt.Sprintf("%s.%d.log", filepath.Base(os.Args[0]), os.Getpid())
	path := filepath.Join(customLog.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	Infof("From now on, all logs will be written to %s", path)

	customLog.debug = log.New(file, "[DEBUG] ", format)
	customLog.info = log.New(file, "[INFOM] ", format)
	customLog.err = log.New(file, "[ERROR] ", format)
	return nil
}

func Debug(v ...any) {
	if debugOn.Load() {
		_ = customLog.debug.Output(2, fmt.Sprint(v...))
	}
}

func Debugf(format string, v ...any) {
	if debugOn.Load() {
		_ = customLog.debug.Output(2, fmt.Sprintf(format, v...))
	}
}

func Info(v ...any) {
	_ = customLog.info.Output(2, fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	_ = customLog.info.Output(2, fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	_ = customLog.err.Output(2, fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	_ = customLog.err.Output(2, fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	_ = customLog.err.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
