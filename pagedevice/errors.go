package pagedevice

import "errors"

var (
	ErrReadOnly          = errors.New("read-only")
	ErrInvalidPageSize   = errors.New("invalid page size")
	ErrMisalignedRequest = errors.New("misaligned allocation request")
	ErrBadChecksum       = errors.New("bad checksum")
	ErrWrongBufferSize   = errors.New("wrong buffer size")
)
