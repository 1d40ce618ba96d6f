package packidx

import "io"

// blockReader is the byte source both decoders parse from.
// *mmap.ReaderAt satisfies it for on-disk indexes; *bytes.Reader does
// for in-memory blobs, which the tests exploit.
type blockReader interface {
	io.ReaderAt
	Len() int
}

// readFull reads exactly len(buf) bytes starting at off. ReadAt already
// promises len(buf) bytes or an error; the only wrinkle is that a read
// ending precisely at EOF may report io.EOF alongside a full buffer.
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	return err
}
