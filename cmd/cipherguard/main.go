package main

import (
	"fmt"
	"os"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/keys"
	"github.com/cipherguard/cipherguard/domain/ledger"
	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/pow"
	"github.com/cipherguard/cipherguard/domain/ruleerrors"
	"github.com/cipherguard/cipherguard/infrastructure/db/ledgerstore"
	"github.com/cipherguard/cipherguard/infrastructure/logger"
	"github.com/cipherguard/cipherguard/infrastructure/os/signal"
	"github.com/cipherguard/cipherguard/util/panics"
	"github.com/cipherguard/cipherguard/version"
)

const logHashRateInterval = 10 * time.Second

func main() {
	defer panics.HandlePanic(log, "main", nil)

	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	err = logger.InitLog(cfg.logFile(), cfg.errLogFile(), cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %s\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	log.Infof("Version %s", version.Version())

	interrupt := signal.InterruptListener()

	err = run(cfg, interrupt)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrMiningCanceled) {
			log.Infof("Mining canceled by interrupt. Nothing was appended.")
			return
		}
		panics.Exit(log, fmt.Sprintf("%+v", err))
	}
}

func run(cfg *configFlags, interrupt <-chan struct{}) error {
	ldgr, store, err := buildLedger(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			err := store.Close()
			if err != nil {
				log.Errorf("Error closing the ledger store: %s", err)
			}
		}()
	}

	keyPair, err := signingKeyPair(cfg)
	if err != nil {
		return err
	}

	logHashRate()

	for _, payload := range cfg.Payloads {
		err = submitPayload(ldgr, store, keyPair, []byte(payload), interrupt)
		if err != nil {
			return err
		}
	}

	for i := uint64(0); i < cfg.NumBlocks; i++ {
		block, err := ldgr.MineEmptyBlock(interrupt)
		if err != nil {
			return err
		}
		err = persistTip(ldgr, store, block)
		if err != nil {
			return err
		}
	}

	err = ldgr.ValidateChain()
	if err != nil {
		return err
	}
	log.Infof("Chain is valid: %d blocks, tip %s", ldgr.BlockCount(), ldgr.TipHash())
	return nil
}

func buildLedger(cfg *configFlags) (*ledger.Ledger, *ledgerstore.LedgerStore, error) {
	params := ledger.Params{Difficulty: cfg.Difficulty}
	if cfg.NoStore {
		ldgr, err := ledger.New(params)
		return ldgr, nil, err
	}

	store, err := ledgerstore.Open(cfg.databaseDir())
	if err != nil {
		return nil, nil, err
	}

	storedBlocks, err := store.Blocks()
	if err != nil {
		return nil, nil, err
	}
	if len(storedBlocks) == 0 {
		ldgr, err := ledger.New(params)
		if err != nil {
			return nil, nil, err
		}
		genesis, err := ldgr.BlockByIndex(0)
		if err != nil {
			return nil, nil, err
		}
		err = store.PutBlock(0, genesis)
		if err != nil {
			return nil, nil, err
		}
		return ldgr, store, nil
	}

	log.Infof("Loaded %d blocks from %s", len(storedBlocks), cfg.databaseDir())
	ldgr, err := ledger.NewFromBlocks(params, storedBlocks)
	if err != nil {
		return nil, nil, errors.Wrap(err, "the stored chain failed validation")
	}
	return ldgr, store, nil
}

func signingKeyPair(cfg *configFlags) (*keys.KeyPair, error) {
	if cfg.Mnemonic != "" {
		keyPair, err := keys.KeyPairFromMnemonic(cfg.Mnemonic)
		if err != nil {
			return nil, err
		}
		logKeyFingerprint(keyPair, "Recovered")
		return keyPair, nil
	}

	mnemonic, err := keys.GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	keyPair, err := keys.KeyPairFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	logKeyFingerprint(keyPair, "Generated")
	log.Infof("Key backup mnemonic: %s", mnemonic)
	return keyPair, nil
}

func logKeyFingerprint(keyPair *keys.KeyPair, verb string) {
	publicKey, err := keyPair.PublicKeyBytes()
	if err != nil {
		log.Warnf("Could not derive public key for display: %s", err)
		return
	}
	log.Infof("%s signing key %s", verb, base58.Encode(publicKey))
}

func submitPayload(ldgr *ledger.Ledger, store *ledgerstore.LedgerStore,
	keyPair *keys.KeyPair, payload []byte, interrupt <-chan struct{}) error {

	tx, err := keys.NewSignedTransaction(keyPair, payload)
	if err != nil {
		return err
	}
	block, err := ldgr.SubmitTransaction(tx, interrupt)
	if err != nil {
		return err
	}
	return persistTip(ldgr, store, block)
}

func persistTip(ldgr *ledger.Ledger, store *ledgerstore.LedgerStore, tip *model.Block) error {
	if store == nil {
		return nil
	}
	return store.PutBlock(ldgr.BlockCount()-1, tip)
}

func logHashRate() {
	spawn("logHashRate", func() {
		for range time.Tick(logHashRateInterval) {
			hashesTried := pow.SampleHashesTried()
			kiloHashesTried := float64(hashesTried) / 1000.0
			hashRate := kiloHashesTried / logHashRateInterval.Seconds()
			log.Debugf("Current hash rate is %.2f Khash/s", hashRate)
		}
	})
}
