package consensushashing

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/hashes"
	"github.com/cipherguard/cipherguard/domain/model"
)

// BlockHash returns the given block's hash: a digest over the header fields
// and the ordered transaction sequence. Any change to any of those inputs,
// including transaction order, changes the resulting hash.
func BlockHash(block *model.Block) *model.Hash {
	writer := hashes.NewBlockHashWriter()
	err := serializeBlockForHashing(writer, block)
	if err != nil {
		// this writer never returns errors (no allocations or possible failures)
		// so errors can only come from the serialization code itself.
		panic(errors.Wrap(err, "BlockHash() failed. this should never fail for structurally-valid blocks"))
	}
	return writer.Finalize()
}

func serializeBlockForHashing(w io.Writer, block *model.Block) error {
	err := serializeHeader(w, block.Header)
	if err != nil {
		return err
	}

	err = writeElement(w, uint64(len(block.Transactions)))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		err = serializeTransaction(w, tx)
		if err != nil {
			return err
		}
	}
	return nil
}

func serializeHeader(w io.Writer, header *model.BlockHeader) error {
	err := writeElement(w, header.Version)
	if err != nil {
		return err
	}
	_, err = w.Write(header.PreviousHash.ByteSlice())
	if err != nil {
		return errors.WithStack(err)
	}
	err = writeElement(w, header.TimeInMilliseconds)
	if err != nil {
		return err
	}
	err = writeElement(w, header.Difficulty)
	if err != nil {
		return err
	}
	return writeElement(w, header.Nonce)
}

func serializeTransaction(w io.Writer, tx *model.Transaction) error {
	err := writeVarBytes(w, tx.Payload)
	if err != nil {
		return err
	}
	err = writeVarBytes(w, tx.Signature)
	if err != nil {
		return err
	}
	return writeVarBytes(w, tx.PublicKey)
}

func writeVarBytes(w io.Writer, data []byte) error {
	err := writeElement(w, uint64(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// writeElement writes the little endian representation of element to w.
func writeElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case uint32:
		binary.LittleEndian.PutUint32(buf[:4], e)
		_, err := w.Write(buf[:4])
		return errors.WithStack(err)
	case int64:
		binary.LittleEndian.PutUint64(buf[:8], uint64(e))
		_, err := w.Write(buf[:8])
		return errors.WithStack(err)
	case uint64:
		binary.LittleEndian.PutUint64(buf[:8], e)
		_, err := w.Write(buf[:8])
		return errors.WithStack(err)
	default:
		return errors.Errorf("there's no serialization for type %T", element)
	}
}
