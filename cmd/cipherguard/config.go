package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/pow"
	"github.com/cipherguard/cipherguard/infrastructure/logger"
	"github.com/cipherguard/cipherguard/version"
)

const (
	defaultLogFilename    = "cipherguard.log"
	defaultErrLogFilename = "cipherguard_err.log"
	defaultDifficulty     = 2
)

var defaultHomeDir = btcutil.AppDataDir("cipherguard", false)

type configFlags struct {
	ShowVersion bool     `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string   `short:"b" long:"datadir" description:"Directory to store the chain and logs in"`
	LogLevel    string   `short:"l" long:"loglevel" default:"info" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
	Difficulty  uint32   `short:"d" long:"difficulty" description:"Number of leading zero hex symbols required in block hashes"`
	Payloads    []string `short:"p" long:"payload" description:"Payload to sign and record as a transaction. May be given more than once; each payload is mined into its own block"`
	NumBlocks   uint64   `short:"n" long:"numblocks" description:"Number of additional empty blocks to mine"`
	Mnemonic    string   `short:"m" long:"mnemonic" description:"Mnemonic to recover the signing key from. If omitted, a fresh key is generated and its mnemonic printed"`
	NoStore     bool     `long:"nostore" description:"Don't persist the chain to disk"`

	logLevel logger.Level
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		DataDir:    defaultHomeDir,
		Difficulty: defaultDifficulty,
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	if err != nil {
		return nil, err
	}

	if cfg.Difficulty > pow.MaxDifficulty {
		return nil, errors.Errorf("--difficulty must be at most %d", pow.MaxDifficulty)
	}

	logLevel, ok := logger.LevelFromString(cfg.LogLevel)
	if !ok {
		return nil, errors.Errorf("%q is not a valid log level", cfg.LogLevel)
	}
	cfg.logLevel = logLevel

	return cfg, nil
}

func (cfg *configFlags) logFile() string {
	return filepath.Join(cfg.DataDir, "logs", defaultLogFilename)
}

func (cfg *configFlags) errLogFile() string {
	return filepath.Join(cfg.DataDir, "logs", defaultErrLogFilename)
}

func (cfg *configFlags) databaseDir() string {
	return filepath.Join(cfg.DataDir, "ledgerdb")
}
