//go:build linux

// Package fuseview mounts a box.Archive read-only as a flat FUSE directory,
// one file per entry. It is a thin adapter over github.com/hanwen/go-fuse/v2
// built only on the archive's exported API; box itself never imports fuse.
package fuseview

import (
	"context"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/KarpelesLab/box"
)

// root is the filesystem's single directory inode, listing every entry in
// the archive by name.
type root struct {
	fs.Inode

	archive *box.Archive
	source  box.SeekableSource

	mu sync.Mutex
}

var _ fs.NodeReaddirer = (*root)(nil)
var _ fs.NodeLookuper = (*root)(nil)

// Mount mounts archive, backed by source for random-access entry reads, at
// mountpoint and returns the running server once the mount is in place; the
// caller waits on or unmounts it through the returned *fuse.Server.
func Mount(mountpoint string, archive *box.Archive, source box.SeekableSource) (*fuse.Server, error) {
	r := &root{archive: archive, source: source}
	server, err := fs.Mount(mountpoint, r, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:   "box",
			Name:     "boxfs",
			ReadOnly: true,
		},
	})
	if err != nil {
		return nil, err
	}
	return server, nil
}

func (r *root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := make([]fuse.DirEntry, 0, len(r.archive.Entries))
	for i, e := range r.archive.Entries {
		entries = append(entries, fuse.DirEntry{
			Mode: syscall.S_IFREG | 0444,
			Name: e.Name,
			Ino:  uint64(i) + 2,
		})
	}
	return fs.NewListDirStream(entries), 0
}

func (r *root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	for i, e := range r.archive.Entries {
		if e.Name != name {
			continue
		}
		out.Mode = syscall.S_IFREG | 0444
		out.Size = e.OriginalSize
		child := &entryNode{root: r, entry: e, index: i}
		return r.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG, Ino: uint64(i) + 2}), 0
	}
	return nil, syscall.ENOENT
}

// entryNode represents one archive entry as a regular file. Reads are
// served through a fresh ArchiveReadHandle per Open, since box's Source
// chain is a single-pass, non-seekable io.Reader once built.
type entryNode struct {
	fs.Inode

	root  *root
	entry *box.Entry
	index int
}

var _ fs.NodeOpener = (*entryNode)(nil)
var _ fs.NodeGetattrer = (*entryNode)(nil)

func (n *entryNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | 0444
	out.Size = n.entry.OriginalSize
	return 0
}

func (n *entryNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	handle := box.NewArchiveReadHandle(n.root.source, n.root.archive, n.entry)
	src, err := handle.Source(true)
	if err != nil {
		return nil, 0, syscall.EIO
	}
	return &entryHandle{src: src}, fuse.FOPEN_KEEP_CACHE, 0
}

// entryHandle buffers the entry's decoded bytes on first read, since box's
// Source chain only supports sequential forward reads while FUSE may issue
// reads at arbitrary offsets once the page cache warms up past what
// FOPEN_KEEP_CACHE accounts for.
type entryHandle struct {
	mu   sync.Mutex
	src  box.Source
	data []byte
	done bool
}

var _ fs.FileReader = (*entryHandle)(nil)

func (h *entryHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.done {
		buf := make([]byte, 32*1024)
		for {
			n, err := h.src.Read(buf)
			if n > 0 {
				h.data = append(h.data, buf[:n]...)
			}
			if err != nil {
				break
			}
		}
		h.done = true
	}

	if off >= int64(len(h.data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(h.data)) {
		end = int64(len(h.data))
	}
	return fuse.ReadResultData(h.data[off:end]), 0
}
