// Package startup is intended as a helper package to
// run services in go routines in main
package startup

import (
	"os"

	"github.com/datatrails/go-datatrails-kvstore/environment"
	"github.com/datatrails/go-datatrails-kvstore/k8sworker"
	"github.com/datatrails/go-datatrails-kvstore/logger"
)

type Runner func(Logger) error

// Run initialises logging and the go runtime, calls run and exits with a
// non zero code if it fails. Defers do not work in main() because of the
// os.Exit.
func Run(serviceName string, run Runner) {
	logger.New(environment.GetLogLevel())
	log := logger.Sugar.WithServiceName(serviceName)

	exitCode := func() int {
		k8sConfig, undo, err := k8sworker.Configure(log.Infof)
		if err != nil {
			log.Infof("Error configuring go for kubernetes: %v", err)
			return 1
		}
		defer undo()
		log.Infof("Go Configuration: %v", k8sConfig)

		if err := run(log); err != nil {
			log.Infof("Error at startup: %v", err)
			return 1
		}
		return 0
	}()

	log.Infof("Shutting down")
	logger.OnExit()

	os.Exit(exitCode)
}
