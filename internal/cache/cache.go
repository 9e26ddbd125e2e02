// Package cache implements spec.md's domain-stack memoized analysis cache
// (SPEC_FULL.md §2): an on-disk, msgpack-encoded cache of borrow-check
// results keyed by a function's structural content hash, so re-running the
// pipeline on an unchanged function skips borrow re-analysis.
//
// Grounded on the teacher's internal/driver/dcache.go, which the teacher's
// own comment calls "a stub for future semantic exports" - this package is
// that future export, adapted to Beanstalk's per-function granularity and
// to caching borrow.Summary/Issues rather than project.ModuleMeta.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"beanstalk/internal/hir"
)

// Digest is a fixed 256-bit content hash, compatible with project.Digest.
type Digest [32]byte

// schemaVersion is bumped whenever Payload's shape changes, invalidating
// every entry written under an older version (teacher precedent:
// driver/dcache.go's diskCacheSchemaVersion).
const schemaVersion uint16 = 1

// SpanPayload mirrors source.Span.
type SpanPayload struct {
	File  uint32
	Start uint32
	End   uint32
}

// IssuePayload mirrors borrow.Issue in a form stable across the package
// boundary: cache does not import borrow's Issue.Error() machinery, just
// the fields a diagnostic needs to be re-reported without re-analysis.
type IssuePayload struct {
	Kind    uint8
	Func    uint32
	Place   uint32
	Primary SpanPayload
	Prior   SpanPayload
	Note    string
	Suggest string
}

// ParamAccessPayload mirrors borrow.ParamAccess.
type ParamAccessPayload = uint8

// ReturnAliasPayload mirrors borrow.ReturnAlias.
type ReturnAliasPayload struct {
	Kind uint8
	Arg  int
}

// Payload is one cached function's borrow-check outcome: its call summary
// (so callers downstream still get a precise summary instead of falling
// back to ConservativeSummary) plus the issues it raised.
type Payload struct {
	Schema       uint16
	FuncName     string
	ParamAccess  []ParamAccessPayload
	ReturnAlias  ReturnAliasPayload
	Issues       []IssuePayload
}

// FuncContentHash computes a structural content hash of fn: block count,
// region/local membership, statement and terminator shapes, and the value
// IDs they reference. Two calls across separate builds of an unchanged
// source function produce the same hash, since every field hashed is a
// dense, deterministically-assigned ID - nothing path- or time-dependent.
//
// This is a structural surrogate for "the function's source text," since
// HIR carries no back-reference to source bytes once front-end tokens are
// discarded (spec.md §1's front end, out of scope here). A pass-1
// simplification: it hashes HIR shape, not literal source text, so a
// cosmetic source edit that happens to produce byte-identical HIR (e.g.
// whitespace-only changes) still counts as a cache hit, which is the
// desired behavior anyway.
func FuncContentHash(fn *hir.Func) Digest {
	h := sha256.New()
	var buf [4]byte
	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	writeU8 := func(v uint8) { h.Write([]byte{v}) }
	writeStr := func(s string) {
		writeU32(uint32(len(s)))
		h.Write([]byte(s))
	}

	writeStr(fn.Name)
	writeU32(uint32(len(fn.Params)))
	for _, p := range fn.Params {
		writeU32(uint32(p))
	}
	writeU32(uint32(fn.NumBlocks()))

	for i := 0; i < fn.NumBlocks(); i++ {
		blk, ok := fn.Block(hir.BlockID(i + 1))
		if !ok {
			continue
		}
		writeU32(uint32(blk.Region))
		writeU32(uint32(len(blk.Locals)))
		for _, l := range blk.Locals {
			writeU32(uint32(l))
		}
		writeU32(uint32(len(blk.Stmts)))
		for _, s := range blk.Stmts {
			writeU8(uint8(s.Kind))
			writeU32(uint32(s.Target))
			writeU32(uint32(s.Value))
			writeU8(uint8(s.Call.Kind))
			writeStr(s.Call.Name)
			writeU32(uint32(s.Call.Func))
			for _, a := range s.Args {
				writeU32(uint32(a))
			}
		}
		writeU8(uint8(blk.Terminator.Kind))
		writeU32(uint32(blk.Terminator.JumpTarget))
		writeU32(uint32(blk.Terminator.Cond))
		writeU32(uint32(blk.Terminator.Then))
		writeU32(uint32(blk.Terminator.Else))
		writeU32(uint32(blk.Terminator.Scrutinee))
		writeU32(uint32(blk.Terminator.LoopBody))
		writeU32(uint32(blk.Terminator.BreakTo))
		writeU32(uint32(blk.Terminator.Target))
		writeU32(uint32(blk.Terminator.ReturnValue))
		writeU32(uint32(len(blk.Terminator.Arms)))
		for _, arm := range blk.Terminator.Arms {
			writeU8(uint8(arm.Pattern.Kind))
			writeU32(uint32(arm.Pattern.Lit))
			writeU32(uint32(arm.Guard))
			writeU32(uint32(arm.Body))
		}
	}

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DiskCache stores Payloads on disk, msgpack-encoded, one file per Digest.
// Thread-safe for concurrent Get/Put, matching driver/dcache.go's DiskCache.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a disk cache rooted at dir (created if absent).
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 0, len(key)*2)
	for _, b := range key {
		buf = append(buf, hextable[b>>4], hextable[b&0xf])
	}
	return filepath.Join(c.dir, "funcs", string(buf)+".mp")
}

// Get reads and decodes a payload, reporting false (no error) on a miss or
// a schema mismatch - a stale schema is treated exactly like an absent
// entry, forcing recomputation rather than failing the build.
func (c *DiskCache) Get(key Digest) (Payload, bool, error) {
	if c == nil {
		return Payload{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Payload{}, false, nil
		}
		return Payload{}, false, err
	}
	defer f.Close()

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return Payload{}, false, nil
	}
	if p.Schema != schemaVersion {
		return Payload{}, false, nil
	}
	return p, true, nil
}

// Put writes p under key, replacing any prior entry atomically.
func (c *DiskCache) Put(key Digest, p Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p.Schema = schemaVersion
	dest := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "tmp-*")
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(tmp)
	if err := enc.Encode(&p); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// DropAll invalidates every cached entry, for use after a schema bump.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}
