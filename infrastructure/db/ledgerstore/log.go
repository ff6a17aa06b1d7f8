package ledgerstore

import (
	"github.com/cipherguard/cipherguard/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LSTR")
