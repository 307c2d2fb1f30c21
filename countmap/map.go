package countmap

import (
	"reflect"
	"unsafe"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"
	"github.com/grailbio/kestrel/kmer"
	"golang.org/x/sys/unix"
)

// This file implements Map, the reference CountMap.  It is physically
// sharded 256 ways, using the lower 8 bits of farmhash(kmer) to pick the
// shard, and the upper bits of the same hash to place the entry within a
// shard's linear-probing hash table -- the same scheme fusion/kmer_index.go
// uses for its kmer->genelist index, simplified here to a single uint32
// count per kmer instead of a variable-length gene list, so no
// inlined/outlined split is needed.

const (
	nMapShard     = 256 // number of shards, matching fusion's kmerIndex.
	maxCollisions = 64  // max linear-probe steps allowed per lookup.
	mapEntrySize  = unsafe.Sizeof(mapEntry{})
	hugePageSize  = 2 << 20
	loadFactor    = 4
)

// mapEntry is one slot of a shard's hash table.
type mapEntry struct {
	k     kmer.Kmer
	count uint32
}

// mapShard is a vanilla linear-probing hash table living in an anonymously
// mmap'd, MADV_HUGEPAGE-advised region, to avoid both Go's GC scanning the
// table (no pointers in mapEntry) and TLB pressure from a large heap
// allocation.
type mapShard struct {
	nShift     uint32 // number of high bits of the hash used to pick a bucket.
	tableStart unsafe.Pointer
	tableLimit unsafe.Pointer
	mmapBase   unsafe.Pointer // original Mmap return value, for Munmap.
	mmapLen    int
}

// Map is the reference CountMap implementation. The zero value is an empty,
// usable map; call Load to populate it.
type Map struct {
	shards [nMapShard]mapShard
	loaded bool
}

var _ CountMap = (*Map)(nil)

func hashKmer(k kmer.Kmer) uint64 {
	return farm.Hash64WithSeed(nil, uint64(k))
}

// Get implements CountMap.
func (m *Map) Get(k kmer.Kmer) uint32 {
	if !m.loaded {
		return 0
	}
	h := hashKmer(k)
	shard := &m.shards[h&(nMapShard-1)]
	if shard.tableStart == nil {
		return 0
	}
	tableStart := uintptr(shard.tableStart)
	tableLimit := uintptr(shard.tableLimit)
	entPtr := tableStart + mapEntrySize*uintptr(h>>shard.nShift)
	for iter := 0; iter <= maxCollisions; iter++ {
		ent := (*mapEntry)(unsafe.Pointer(entPtr))
		if ent.k == k {
			return ent.count
		}
		if ent.k == kmer.Invalid {
			return 0
		}
		entPtr += mapEntrySize
		if entPtr >= tableLimit {
			entPtr = tableStart
		}
	}
	return 0
}

// Load implements CountMap. It discards any previously loaded contents,
// unmapping the old shard tables (via Free) before building the new ones.
func (m *Map) Load(sample KmerCounts) error {
	m.Free()
	byShard := make([]map[kmer.Kmer]uint32, nMapShard)
	for k, count := range sample {
		if k == kmer.Invalid {
			continue
		}
		h := hashKmer(k)
		shard := h & (nMapShard - 1)
		if byShard[shard] == nil {
			byShard[shard] = make(map[kmer.Kmer]uint32)
		}
		byShard[shard][k] = count
	}
	for shard := 0; shard < nMapShard; shard++ {
		m.initShard(shard, byShard[shard])
	}
	m.loaded = true
	return nil
}

// Free implements CountMap.
func (m *Map) Free() {
	for i := range m.shards {
		shard := &m.shards[i]
		if shard.tableStart == nil {
			continue
		}
		var data []byte
		dh := (*reflect.SliceHeader)(unsafe.Pointer(&data))
		dh.Data = uintptr(shard.mmapBase)
		dh.Len = shard.mmapLen
		dh.Cap = shard.mmapLen
		if err := unix.Munmap(data); err != nil {
			log.Panic(err)
		}
		*shard = mapShard{}
	}
	m.loaded = false
}

func (m *Map) initShard(shard int, input map[kmer.Kmer]uint32) {
	if len(input) == 0 {
		m.shards[shard] = mapShard{}
		return
	}
	minSize := int((float64(len(input) + 1)) * loadFactor)
	size := 1
	shift := 0
	for size < minSize {
		size *= 2
		shift++
	}
	sizeShift := 64 - shift

	mmapLen := size*int(mapEntrySize) + hugePageSize
	tableData, err := unix.Mmap(-1, 0, mmapLen,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Panic(err)
	}
	if err := unix.Madvise(tableData, unix.MADV_HUGEPAGE); err != nil {
		log.Panic(err)
	}
	tableStart := ((uintptr(unsafe.Pointer(&tableData[0]))-1)/hugePageSize + 1) * hugePageSize
	tableLimit := tableStart + uintptr(size)*mapEntrySize

	for i := 0; i < size; i++ {
		ent := (*mapEntry)(unsafe.Pointer(tableStart + mapEntrySize*uintptr(i)))
		ent.k = kmer.Invalid
	}

	for k, count := range input {
		h := hashKmer(k)
		if h&(nMapShard-1) != uint64(shard) {
			log.Panicf("kmer %v hashed to wrong shard", k)
		}
		entPtr := tableStart + mapEntrySize*uintptr(h>>uint(sizeShift))
		var ent *mapEntry
		for iter := 0; ; iter++ {
			ent = (*mapEntry)(unsafe.Pointer(entPtr))
			if ent.k == kmer.Invalid {
				break
			}
			if iter > maxCollisions {
				log.Panicf("shard %d overflowed at size %d", shard, size)
			}
			entPtr += mapEntrySize
			if entPtr >= tableLimit {
				entPtr = tableStart
			}
		}
		ent.k = k
		ent.count = count
	}

	m.shards[shard] = mapShard{
		nShift:     uint32(sizeShift),
		tableStart: unsafe.Pointer(tableStart),
		tableLimit: unsafe.Pointer(tableLimit),
		mmapBase:   unsafe.Pointer(&tableData[0]),
		mmapLen:    mmapLen,
	}
}
