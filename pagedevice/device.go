// Package pagedevice is a minimal paged file backed by a nanokv.File: it
// grows the file to satisfy allocations the freelist couldn't serve, and
// checksums every page it writes so a reader can detect torn or corrupted
// pages.
package pagedevice

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/nanokv/nanokv"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

const checksumSize = 4

// Device is a nanokv.PageAllocator: it hands out page-aligned byte ranges
// by growing a file, and offers checksummed whole-page reads and writes
// over the same range. Its methods serialize on an internal mutex.
type Device struct {
	mu sync.Mutex

	file     nanokv.File
	pageSize int64
	size     int64
	readOnly bool
	checksum bool
	err      error
}

var _ nanokv.PageAllocator = (*Device)(nil)

// New wraps file, whose current size is fileSize, as a Device configured
// by opt. opt must implement Option; it may also implement ReadOnly
// and/or ChecksumDisabled.
func New(file nanokv.File, fileSize int64, opt Option) (*Device, error) {
	pageSize := opt.PageSize()
	if pageSize <= int(checksumSize) {
		return nil, fmt.Errorf("pagedevice: %d: %w", pageSize, ErrInvalidPageSize)
	}

	return &Device{
		file:     file,
		pageSize: int64(pageSize),
		size:     fileSize,
		readOnly: isReadOnly(opt),
		checksum: !isChecksumDisabled(opt),
	}, nil
}

// PageSize returns the full on-disk size of a page, including the
// trailing checksum (if enabled).
func (d *Device) PageSize() int64 { return d.pageSize }

// PayloadSize returns how many of a page's bytes are available to the
// caller; it is PageSize minus the checksum trailer, or PageSize itself
// when checksums are disabled.
func (d *Device) PayloadSize() int64 {
	if d.checksum {
		return d.pageSize - checksumSize
	}
	return d.pageSize
}

// Size returns the device's current file size.
func (d *Device) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// AllocateAligned grows the file by byteCount bytes, which must be a
// positive multiple of PageSize, and returns the file offset the new
// region starts at.
func (d *Device) AllocateAligned(byteCount int64) (fileOffset uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return 0, d.err
	}
	if d.readOnly {
		return 0, fmt.Errorf("pagedevice: allocate: %w", ErrReadOnly)
	}
	if byteCount <= 0 || byteCount%d.pageSize != 0 {
		return 0, fmt.Errorf("pagedevice: allocate %d bytes: %w", byteCount, ErrMisalignedRequest)
	}

	offset := d.size
	newSize := offset + byteCount
	if err := d.file.Truncate(newSize); err != nil {
		d.err = fmt.Errorf("pagedevice: grow to %d: %w", newSize, err)
		return 0, d.err
	}
	d.size = newSize
	return uint64(offset), nil
}

// Truncate shrinks or grows the backing file to exactly fileSize bytes.
func (d *Device) Truncate(fileSize int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	if d.readOnly {
		return fmt.Errorf("pagedevice: truncate: %w", ErrReadOnly)
	}

	if err := d.file.Truncate(fileSize); err != nil {
		d.err = fmt.Errorf("pagedevice: truncate to %d: %w", fileSize, err)
		return d.err
	}
	d.size = fileSize
	return nil
}

// ReadPage reads the page at offset into payload, whose length must be
// exactly PayloadSize. If checksums are enabled, the page's trailing
// CRC32 is verified against the payload bytes actually read.
func (d *Device) ReadPage(offset uint64, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	if int64(len(payload)) != d.PayloadSize() {
		return fmt.Errorf("pagedevice: read: %w", ErrWrongBufferSize)
	}

	if !d.checksum {
		_, err := d.file.ReadAt(payload, int64(offset))
		return err
	}

	buf := make([]byte, d.pageSize)
	if _, err := d.file.ReadAt(buf, int64(offset)); err != nil {
		return err
	}

	want := binary.LittleEndian.Uint32(buf[d.PayloadSize():])
	got := checksum(buf[:d.PayloadSize()])
	if want != got {
		return fmt.Errorf("pagedevice: page at %d: %w", offset, ErrBadChecksum)
	}

	copy(payload, buf[:d.PayloadSize()])
	return nil
}

// WritePage writes payload, whose length must be exactly PayloadSize, as
// the page at offset. If checksums are enabled, a trailing CRC32 over
// payload is written after it.
func (d *Device) WritePage(offset uint64, payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	if d.readOnly {
		return fmt.Errorf("pagedevice: write: %w", ErrReadOnly)
	}
	if int64(len(payload)) != d.PayloadSize() {
		return fmt.Errorf("pagedevice: write: %w", ErrWrongBufferSize)
	}

	if !d.checksum {
		_, err := d.file.WriteAt(payload, int64(offset))
		return err
	}

	buf := make([]byte, d.pageSize)
	copy(buf, payload)
	binary.LittleEndian.PutUint32(buf[d.PayloadSize():], checksum(payload))

	if _, err := d.file.WriteAt(buf, int64(offset)); err != nil {
		d.err = fmt.Errorf("pagedevice: write page at %d: %w", offset, err)
		return d.err
	}
	return nil
}

// Close flushes the backing file to stable storage.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Sync()
}
