package env

import (
	"github.com/thatsimonsguy/flow-controller/internal/config"
)

var (
	Cfg *config.Config
)
