// m68k_blockcache.go - Basic block cache keyed by program counter and bank

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

// Block is a straight-line run of decoded instructions ending with the
// first instruction that can change control flow. Blocks are immutable once
// inserted and live until the cache is cleared.
type Block struct {
	PC       uint32
	Bank     uint32
	Instrs   []IPC
	Clocks   int
	NoRepeat bool

	next *Block
}

// BlockCache chains blocks in buckets hashed on the word address. The bank
// takes part in the match, not the hash.
type BlockCache struct {
	buckets []*Block
	count   int
}

func NewBlockCache() *BlockCache {
	return &BlockCache{buckets: make([]*Block, M68K_BLOCK_BUCKETS)}
}

func blockHash(pc uint32) int {
	return int((pc >> 1) % M68K_BLOCK_BUCKETS)
}

func (c *BlockCache) lookup(pc, bank uint32) *Block {
	for b := c.buckets[blockHash(pc)]; b != nil; b = b.next {
		if b.PC == pc && b.Bank == bank {
			return b
		}
	}
	return nil
}

func (c *BlockCache) insert(b *Block) {
	h := blockHash(b.PC)
	b.next = c.buckets[h]
	c.buckets[h] = b
	c.count++
}

// Clear drops every block.
func (c *BlockCache) Clear() {
	clear(c.buckets)
	c.count = 0
}

// Len is the number of cached blocks.
func (c *BlockCache) Len() int { return c.count }

// Blocks returns every cached block, bucket by bucket.
func (c *BlockCache) Blocks() []*Block {
	out := make([]*Block, 0, c.count)
	for _, b := range c.buckets {
		for ; b != nil; b = b.next {
			out = append(out, b)
		}
	}
	return out
}

// getOrBuild returns the cached block for (pc, bank), decoding it first on
// a miss.
func (e *M68KEngine) getOrBuild(pc, bank uint32) (*Block, error) {
	if b := e.cache.lookup(pc, bank); b != nil {
		e.stats.BlockHits++
		return b, nil
	}
	b, err := e.buildBlock(pc, bank)
	if err != nil {
		return nil, err
	}
	e.cache.insert(b)
	return b, nil
}

// CachedBlock returns the block cached for (pc, bank) without building one.
func (e *M68KEngine) CachedBlock(pc, bank uint32) (*Block, bool) {
	b := e.cache.lookup(pc&M68K_ADDRESS_MASK, bank)
	return b, b != nil
}
