package pagedevice

import "io"

// memFile is a minimal in-memory nanokv.File for tests: a single growable
// byte slice, not safe for concurrent use.
type memFile struct {
	data []byte
}

func (f *memFile) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n = copy(p, f.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (f *memFile) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	return copy(f.data[off:end], p), nil
}

func (f *memFile) Truncate(size int64) error {
	switch {
	case size < int64(len(f.data)):
		f.data = f.data[:size]
	case size > int64(len(f.data)):
		grown := make([]byte, size)
		copy(grown, f.data)
		f.data = grown
	}
	return nil
}

func (f *memFile) Sync() error { return nil }

func (f *memFile) Close() error { return nil }
