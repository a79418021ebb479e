package internal

import (
	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

var Inj do.Injector

// Init wires all services from the loaded config
func Init() do.Injector {
	Inj = do.New()

	config.Init(Inj)
	logging.Init(Inj)
	measurement.Init(Inj)
	tilecache.Init(Inj)
	transport.Init(Inj)
	page.Init(Inj)
	ripper.Init(Inj)
	return Inj
}

// Stop closes the tile cache, the opened tile databases and the log outputs
func Stop() {
	if Inj == nil {
		return
	}
	log := logging.New().WithName("internal")
	tc := do.MustInvoke[tilecache.TileCache](Inj)
	if err := tc.Close(); err != nil {
		log.Errorf("error on close tilecache: %v", err)
	}
	tf := do.MustInvoke[*transport.Factory](Inj)
	if err := tf.Close(); err != nil {
		log.Errorf("error on close transports: %v", err)
	}
	if err := logging.Close(); err != nil {
		log.Errorf("error on close logging: %v", err)
	}
	Inj = nil
}
