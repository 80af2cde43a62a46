package pagedevice

// Option configures a Device. Every Device needs a page size; the other
// capabilities are probed for with a type assertion, the same pattern the
// codec this package's checksumming is grounded on uses for cipher suites
// and block sizes.
type Option interface {
	PageSize() int
}

// ReadOnly is an optional Option capability: when present and true,
// AllocateAligned and Truncate fail with ErrReadOnly instead of touching
// the backing file.
type ReadOnly interface {
	ReadOnly() bool
}

// ChecksumDisabled is an optional Option capability: when present and
// true, pages are read and written without a trailing CRC32 checksum, and
// PayloadSize equals PageSize.
type ChecksumDisabled interface {
	ChecksumDisabled() bool
}

func isReadOnly(opt Option) bool {
	o, ok := opt.(ReadOnly)
	return ok && o.ReadOnly()
}

func isChecksumDisabled(opt Option) bool {
	o, ok := opt.(ChecksumDisabled)
	return ok && o.ChecksumDisabled()
}
