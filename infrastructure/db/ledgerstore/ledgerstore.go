// Package ledgerstore persists a ledger's chain in LevelDB, keyed by block
// height. It is an external storage collaborator: the ledger core never
// calls into it, a host process pulls blocks out of the ledger and pushes
// them through here.
package ledgerstore

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/cipherguard/cipherguard/domain/model"
	"github.com/cipherguard/cipherguard/domain/serialization"
)

var (
	blockKeyPrefix = []byte("block:")
	tipHeightKey   = []byte("tip")
)

// LedgerStore is a thin wrapper around a LevelDB instance holding
// serialized blocks.
type LedgerStore struct {
	ldb *leveldb.DB
}

// Open opens (or creates) the LevelDB instance at the given path. If the
// database is corrupted, an attempt is made to recover it.
func Open(path string) (*LedgerStore, error) {
	options := &opt.Options{
		Compression: opt.NoCompression,
	}
	ldb, err := leveldb.OpenFile(path, options)
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s", path, err)
		ldb, err = leveldb.RecoverFile(path, options)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to recover corrupted database at %s", path)
		}
		log.Warnf("LevelDB recovered from corruption for path %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return &LedgerStore{ldb: ldb}, nil
}

// Close closes the underlying LevelDB instance.
func (s *LedgerStore) Close() error {
	return errors.WithStack(s.ldb.Close())
}

// PutBlock stores the given block under the given chain height, advancing
// the stored tip height if this block extends it. Blocks are immutable, so
// overwriting a height with different content is a caller bug, not a
// supported operation.
func (s *LedgerStore) PutBlock(height uint64, block *model.Block) error {
	blockBytes, err := serialization.SerializeBlock(block)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(blockKey(height), blockBytes)

	tipHeight, hasTip, err := s.TipHeight()
	if err != nil {
		return err
	}
	if !hasTip || height > tipHeight {
		var heightBytes [8]byte
		binary.LittleEndian.PutUint64(heightBytes[:], height)
		batch.Put(tipHeightKey, heightBytes[:])
	}

	return errors.WithStack(s.ldb.Write(batch, nil))
}

// BlockByHeight reads back the block stored at the given height.
func (s *LedgerStore) BlockByHeight(height uint64) (*model.Block, error) {
	blockBytes, err := s.ldb.Get(blockKey(height), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Errorf("no block stored at height %d", height)
		}
		return nil, errors.WithStack(err)
	}
	return serialization.DeserializeBlock(blockBytes)
}

// TipHeight returns the greatest height any block has been stored at. The
// second return value is false when the store is empty.
func (s *LedgerStore) TipHeight() (uint64, bool, error) {
	heightBytes, err := s.ldb.Get(tipHeightKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, errors.WithStack(err)
	}
	if len(heightBytes) != 8 {
		return 0, false, errors.Errorf("tip height value has length %d instead of 8", len(heightBytes))
	}
	return binary.LittleEndian.Uint64(heightBytes), true, nil
}

// Blocks reads the whole stored chain, from genesis to tip, in order.
// Returns an empty slice when the store is empty.
func (s *LedgerStore) Blocks() ([]*model.Block, error) {
	tipHeight, hasTip, err := s.TipHeight()
	if err != nil {
		return nil, err
	}
	if !hasTip {
		return nil, nil
	}

	blocks := make([]*model.Block, 0, tipHeight+1)
	for height := uint64(0); height <= tipHeight; height++ {
		block, err := s.BlockByHeight(height)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func blockKey(height uint64) []byte {
	key := make([]byte, len(blockKeyPrefix)+8)
	copy(key, blockKeyPrefix)
	binary.BigEndian.PutUint64(key[len(blockKeyPrefix):], height)
	return key
}
