package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFileName is the rotating log file written under the log directory.
const logFileName = "organizer.log"

// Options controls logger setup.
type Options struct {
	Debug  bool
	ToFile bool
	Dir    string
}

// Setup configures the global logrus logger. When ToFile is set, output is
// also written to a rotating file. The returned closer releases that file.
func Setup(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if !opts.ToFile {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", errMkdir)
	}
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
	return fileWriter, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
