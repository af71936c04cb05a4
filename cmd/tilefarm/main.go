package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/tilefarm/cmd/tilefarm/cmd"
	"github.com/armadaproject/tilefarm/internal/common"
	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
)

func main() {
	common.ConfigureCommandLineLogging()
	root := cmd.RootCmd()
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(farmerrors.ExitCodeFromError(err))
	}
}
