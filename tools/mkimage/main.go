// Command mkimage builds a bootable ISO image that loads the kernel through
// GRUB's multiboot support.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		configPath = flag.String("config", "mkimage.toml", "path to the image config")
		watchMode  = flag.Bool("watch", false, "rebuild the image whenever the kernel or config changes")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	c, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("cannot load config")
	}

	rebuild := func() error {
		// The config may have changed since the last build.
		if updated, err := loadConfig(*configPath); err == nil {
			c = updated
		} else {
			logrus.WithError(err).Warn("keeping previous config")
		}

		if err := buildImage(c); err != nil {
			return err
		}
		logrus.WithField("output", c.Output).Info("image written")
		return nil
	}

	if err := rebuild(); err != nil {
		logrus.WithError(err).Error("build failed")
		if !*watchMode {
			os.Exit(1)
		}
	}

	if !*watchMode {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logrus.Infof("watching %s and %s", c.Kernel, *configPath)
	if err := watch(ctx, []string{c.Kernel, *configPath}, rebuild); err != nil {
		logrus.WithError(err).Fatal("watch failed")
	}
}
