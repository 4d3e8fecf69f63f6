package fsutil

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Digest computes a deterministic content hash of the tree under root. Each entry
// contributes its relative path, kind, permission bits and content (or link target),
// length-prefixed, in lexical walk order. Modification times are ignored. The VCS
// metadata directory is excluded.
func Digest(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if IsVCS(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		writeField(h, []byte(rel))
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			writeField(h, []byte("l"))
			writeField(h, []byte(target))
		case info.IsDir():
			writeField(h, []byte("d"))
		default:
			writeField(h, []byte("f"))
			var perm [4]byte
			binary.BigEndian.PutUint32(perm[:], uint32(info.Mode().Perm()))
			writeField(h, perm[:])
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			writeField(h, data)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeField(w io.Writer, data []byte) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(data)))
	_, _ = w.Write(size[:])
	_, _ = w.Write(data)
}
