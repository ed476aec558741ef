package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/internal/cli"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := cli.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
