package main

import (
	"github.com/cipherguard/cipherguard/infrastructure/logger"
	"github.com/cipherguard/cipherguard/util/panics"
)

var (
	log   = logger.RegisterSubSystem("CPGD")
	spawn = panics.GoroutineWrapperFunc(log)
)
