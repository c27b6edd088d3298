package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Copy streams src into dst, truncating dst if it exists. Permissions on a
// fresh dst are 0o644.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CopyVerified copies src to dst and then verifies the bytes that landed on
// disk: dst is re-read and its size and SHA-256 must match what was read from
// src. A mismatching dst is removed.
func CopyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	sourceHash := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, sourceHash))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if written != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	landed, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %w", err)
	}
	if !bytes.Equal(sourceHash.Sum(nil), landed) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: %s corrupted during copy", dst)
	}
	return nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
