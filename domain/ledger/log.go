package ledger

import (
	"github.com/cipherguard/cipherguard/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LEDG")
