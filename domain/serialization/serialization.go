// Package serialization implements a lossless, order-preserving binary
// codec for blocks and transactions. It is the format the storage layer
// persists and what a networked deployment would put on the wire; the
// encoding mirrors the hashing preimage layout, so a block deserialized
// from it always rehashes to the same value.
package serialization

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cipherguard/cipherguard/domain/model"
)

// maxSerializedByteField caps variable-length fields on deserialization, so
// a corrupted or hostile length prefix cannot trigger an enormous
// allocation.
const maxSerializedByteField = 1 << 24 // 16 MB

// SerializeBlock encodes the given block to bytes.
func SerializeBlock(block *model.Block) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := writeBlock(buffer, block)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeBlock decodes a block previously encoded by SerializeBlock.
func DeserializeBlock(data []byte) (*model.Block, error) {
	reader := bytes.NewReader(data)
	block, err := readBlock(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after deserialized block", reader.Len())
	}
	return block, nil
}

func writeBlock(w io.Writer, block *model.Block) error {
	err := writeUint32(w, block.Header.Version)
	if err != nil {
		return err
	}
	_, err = w.Write(block.Header.PreviousHash.ByteSlice())
	if err != nil {
		return errors.WithStack(err)
	}
	err = writeUint64(w, uint64(block.Header.TimeInMilliseconds))
	if err != nil {
		return err
	}
	err = writeUint32(w, block.Header.Difficulty)
	if err != nil {
		return err
	}
	err = writeUint64(w, block.Header.Nonce)
	if err != nil {
		return err
	}

	err = writeUint64(w, uint64(len(block.Transactions)))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		err = writeTransaction(w, tx)
		if err != nil {
			return err
		}
	}
	return nil
}

func readBlock(r io.Reader) (*model.Block, error) {
	header := &model.BlockHeader{}

	version, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	header.Version = version

	var hashBytes [model.HashSize]byte
	_, err = io.ReadFull(r, hashBytes[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	header.PreviousHash = *model.NewHashFromByteArray(&hashBytes)

	timeInMilliseconds, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	header.TimeInMilliseconds = int64(timeInMilliseconds)

	difficulty, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	header.Difficulty = difficulty

	nonce, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	header.Nonce = nonce

	transactionCount, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	if transactionCount > maxSerializedByteField {
		return nil, errors.Errorf("transaction count %d is above the maximum of %d",
			transactionCount, maxSerializedByteField)
	}
	transactions := make([]*model.Transaction, 0, transactionCount)
	for i := uint64(0); i < transactionCount; i++ {
		tx, err := readTransaction(r)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		transactions = append(transactions, tx)
	}

	return &model.Block{Header: header, Transactions: transactions}, nil
}

func writeTransaction(w io.Writer, tx *model.Transaction) error {
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

func readTransaction(r io.Reader) (*model.Transaction, error) {
	payload, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	signature, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	publicKey, err := readVarBytes(r)
	if err != nil {
		return nil, err
	}
	return &model.Transaction{Payload: payload, Signature: signature, PublicKey: publicKey}, nil
}

func writeVarBytes(w io.Writer, data []byte) error {
	err := writeUint64(w, uint64(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.WithStack(err)
}

func readVarBytes(r io.Reader) ([]byte, error) {
	length, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	if length > maxSerializedByteField {
		return nil, errors.Errorf("byte field length %d is above the maximum of %d",
			length, maxSerializedByteField)
	}
	data := make([]byte, length)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func writeUint32(w io.Writer, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint64(w io.Writer, value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
