package fetcher

import "github.com/willie68/go_tilerip/internal/logging"

var log = logging.New().WithName("fetcher")
