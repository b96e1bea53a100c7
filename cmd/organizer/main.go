package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := newRootCmd().Execute(); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}
