// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/dtn-go/bpcore/pkg/cboring"
)

// Sorted list of all known block type codes to prevent double usage.
const (
	// ExtBlockTypePayloadBlock is the block type code for a Payload Block.
	ExtBlockTypePayloadBlock uint64 = 1

	// ExtBlockTypePreviousNodeBlock is the block type code for a Previous Node Block.
	ExtBlockTypePreviousNodeBlock uint64 = 6

	// ExtBlockTypeBundleAgeBlock is the block type code for a Bundle Age Block.
	ExtBlockTypeBundleAgeBlock uint64 = 7

	// ExtBlockTypeHopCountBlock is the block type code for a Hop Count Block.
	ExtBlockTypeHopCountBlock uint64 = 10
)

// ExtensionBlock describes the block-type specific data of any Canonical
// Block. Such an ExtensionBlock must implement either the
// cboring.CborMarshaler interface, if its serializable to / from CBOR, or
// both encoding.BinaryMarshaler and encoding.BinaryUnmarshaler. The latter
// allows any kind of serialization, e.g., to a totally custom format.
type ExtensionBlock interface {
	Valid

	// BlockTypeCode must return a constant integer, indicating the block type code.
	BlockTypeCode() uint64

	// BlockTypeName must return a constant string, this block's name.
	BlockTypeName() string

	// CheckContextValid checks this ExtensionBlock's validity in the
	// context of its surrounding Bundle, e.g. to enforce at-most-one
	// constraints across a bundle's canonical blocks.
	CheckContextValid(b *Bundle) error
}

// ExtensionBlockManager keeps a book on various types of ExtensionBlocks that
// can be changed at runtime. Thus, new ExtensionBlocks can be created based on
// their block type code.
//
// A singleton ExtensionBlockManager can be fetched by GetExtensionBlockManager.
type ExtensionBlockManager struct {
	data  map[uint64]reflect.Type
	mutex sync.Mutex
}

// NewExtensionBlockManager creates an empty ExtensionBlockManager. To use a
// singleton ExtensionBlockManager one can use GetExtensionBlockManager.
func NewExtensionBlockManager() *ExtensionBlockManager {
	return &ExtensionBlockManager{
		data: make(map[uint64]reflect.Type),
	}
}

// Register a new ExtensionBlock type through an exemplary instance.
func (ebm *ExtensionBlockManager) Register(eb ExtensionBlock) error {
	ebm.mutex.Lock()
	defer ebm.mutex.Unlock()

	extCode := eb.BlockTypeCode()
	extType := reflect.TypeOf(eb).Elem()

	if extType == reflect.TypeOf((*GenericExtensionBlock)(nil)).Elem() {
		return fmt.Errorf("not allowed to register a GenericExtensionBlock")
	}

	if otherType, exists := ebm.data[extCode]; exists {
		return fmt.Errorf("block type code %d is already registered for %s",
			extCode, otherType.Name())
	}

	ebm.data[extCode] = extType
	return nil
}

// Unregister an ExtensionBlock type through an exemplary instance.
func (ebm *ExtensionBlockManager) Unregister(eb ExtensionBlock) {
	ebm.mutex.Lock()
	defer ebm.mutex.Unlock()

	delete(ebm.data, eb.BlockTypeCode())
}

// IsKnown returns true if the ExtensionBlock for this block type code is known.
func (ebm *ExtensionBlockManager) IsKnown(typeCode uint64) bool {
	ebm.mutex.Lock()
	defer ebm.mutex.Unlock()

	_, known := ebm.data[typeCode]
	return known
}

// createBlock returns either a specific ExtensionBlock or, if type code is not registered, a GenericExtensionBlock.
func (ebm *ExtensionBlockManager) createBlock(typeCode uint64) ExtensionBlock {
	ebm.mutex.Lock()
	defer ebm.mutex.Unlock()

	if extType, exists := ebm.data[typeCode]; exists {
		return reflect.New(extType).Interface().(ExtensionBlock)
	}
	return &GenericExtensionBlock{typeCode: typeCode}
}

// WriteBlock writes an ExtensionBlock in its correct binary format into the io.Writer.
// Unknown block types are treated as GenericExtensionBlock.
func (ebm *ExtensionBlockManager) WriteBlock(b ExtensionBlock, w io.Writer) error {
	switch b := b.(type) {
	case encoding.BinaryMarshaler:
		data, err := b.MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshalling binary for Block errored: %v", err)
		}
		return cboring.WriteByteString(data, w)

	case cboring.CborMarshaler:
		var buff bytes.Buffer
		if err := cboring.Marshal(b, &buff); err != nil {
			return fmt.Errorf("marshalling CBOR for Block errored: %v", err)
		}
		return cboring.WriteByteString(buff.Bytes(), w)

	default:
		return fmt.Errorf("ExtensionBlock does not implement any expected types")
	}
}

// ReadBlock reads an ExtensionBlock from its correct binary format from the io.Reader.
// Unknown block types are treated as GenericExtensionBlock.
func (ebm *ExtensionBlockManager) ReadBlock(typeCode uint64, r io.Reader) (b ExtensionBlock, err error) {
	b = ebm.createBlock(typeCode)

	switch b := b.(type) {
	case encoding.BinaryUnmarshaler:
		var data []byte
		if data, err = cboring.ReadByteString(r); err == nil {
			err = b.UnmarshalBinary(data)
		}

	case cboring.CborUnmarshaler:
		var data []byte
		if data, err = cboring.ReadByteString(r); err == nil {
			err = cboring.Unmarshal(b, bytes.NewBuffer(data))
		}

	default:
		err = fmt.Errorf("ExtensionBlock does not implement any expected types")
	}

	return
}

var (
	extensionBlockManager      *ExtensionBlockManager
	extensionBlockManagerMutex sync.Mutex
)

// GetExtensionBlockManager returns the singleton ExtensionBlockManager. If none
// exists, a new ExtensionBlockManager will be generated with a knowledge of the
// PayloadBlock, PreviousNodeBlock, BundleAgeBlock and HopCountBlock.
func GetExtensionBlockManager() *ExtensionBlockManager {
	extensionBlockManagerMutex.Lock()
	defer extensionBlockManagerMutex.Unlock()

	if extensionBlockManager == nil {
		extensionBlockManager = NewExtensionBlockManager()

		_ = extensionBlockManager.Register(NewPayloadBlock(nil))
		_ = extensionBlockManager.Register(NewPreviousNodeBlock(DtnNone()))
		_ = extensionBlockManager.Register(NewBundleAgeBlock(0))
		_ = extensionBlockManager.Register(NewHopCountBlock(0))
	}

	return extensionBlockManager
}

// canonicalBlockNumberSort orders canonical blocks by ascending block
// number, except the payload block (number 1), which always sorts last
// per section 4.3's requirement that the payload block be the final
// canonical block of a bundle.
type canonicalBlockNumberSort []CanonicalBlock

func (s canonicalBlockNumberSort) Len() int      { return len(s) }
func (s canonicalBlockNumberSort) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s canonicalBlockNumberSort) Less(i, j int) bool {
	if s[i].BlockNumber == 1 {
		return false
	}
	if s[j].BlockNumber == 1 {
		return true
	}
	return s[i].BlockNumber < s[j].BlockNumber
}
