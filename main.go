package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"github.com/willie68/go_tilerip/configs"
	"github.com/willie68/go_tilerip/internal"
	"github.com/willie68/go_tilerip/internal/api"
	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/pkg/fileutils"
)

var (
	log          *logging.Logger
	configFile   string
	showVersion  bool
	initConfig   bool
	zoom         int
	output       string
	format       string
	workers      int
	serve        bool
	port         int
	showProgress bool
)

const shutdownTimeout = 30 * time.Second

func init() {
	flag.BoolVarP(&initConfig, "init", "i", false, "init config, writes out a default config.")
	flag.BoolVarP(&showVersion, "version", "v", false, "showing the version")
	flag.StringVarP(&configFile, "config", "c", "config.yaml", "this is the path and filename to the config file, the embedded default is used if it doesn't exists")
	flag.IntVarP(&zoom, "zoom", "z", ripper.AutoZoom, "zoom level to rip, -1 uses the highest available")
	flag.StringVarP(&output, "output", "o", "", "output file or directory, - writes to stdout. default is the item title or tilerip.<format>")
	flag.StringVarP(&format, "format", "f", "", "output format: png, jpeg, gif, bmp, tiff, webp. default by output extension or config")
	flag.IntVarP(&workers, "workers", "w", 0, "overwrite the probe workers per axis of the config")
	flag.BoolVarP(&serve, "serve", "s", false, "run the http api instead of ripping")
	flag.IntVarP(&port, "port", "p", 0, "overwrite the port (8580) of the config")
	flag.BoolVar(&showProgress, "progress", true, "show a progress bar if stderr is a terminal")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: %s [flags] <ref>...\n", os.Args[0], os.Args[0])
		fmt.Fprintln(os.Stderr, "ref is a tile base url, an archive page url or an item id")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "examples:")
		fmt.Fprintln(os.Stderr, "rip an item of the archive in the highest zoom level:")
		fmt.Fprintf(os.Stderr, "%s B-497904\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "rip a tile base in zoom level 3 as webp to stdout:")
		fmt.Fprintf(os.Stderr, "%s -z 3 -f webp -o - https://lh5.ggpht.com/<id> > scroll.webp\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "run the http api:")
		fmt.Fprintf(os.Stderr, "%s -s -p 8580\n", os.Args[0])
	}
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(config.NewVersion().String())
		os.Exit(0)
	}
	if initConfig {
		fmt.Println(configs.ConfigFile)
		os.Exit(0)
	}
	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}
	config.SetParameter(config.WithPort(port), config.WithWorkers(workers), config.WithFormat(format))

	inj := internal.Init()
	log = logging.New().WithName("main")
	log.Debugf("config:\n%s", config.JSON())

	var code int
	if serve {
		code = runServer(inj)
	} else {
		code = runRips(inj, flag.Args())
	}
	internal.Stop()
	os.Exit(code)
}

func loadConfig() error {
	if fileutils.FileExists(configFile) {
		return config.Load(configFile)
	}
	if flag.CommandLine.Changed("config") {
		return fmt.Errorf("config file %s doesn't exists", configFile)
	}
	return config.LoadDefault()
}

func runServer(inj do.Injector) int {
	router, err := api.APIRoutes(inj)
	if err != nil {
		log.Errorf("could not create api routes: %v", err)
		return 1
	}
	srv := api.NewServer(config.Port(), router)
	errs := srv.Start()

	ctx, stop := signalContext()
	defer stop()
	log.Infof("waiting for clients")
	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			return 1
		}
	}
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		log.Errorf("error on shutdown: %v", err)
		return 1
	}
	log.Infof("server finished")
	return 0
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
