package schedule

import (
	"regexp"
	"strings"
	"sync"

	"github.com/roach88/ttverify/internal/model"
)

// Decoder turns encoded cell content into transmission records.
type Decoder interface {
	Decode(content string) []model.Transmission
}

var transmissionPattern = regexp.MustCompile(
	`(?i)\b(?:push|pull)\s*\(\s*([^:()\s]+)\s*:\s*([^()\s]+?)\s*->\s*([^(),\s]+)\s*(?:,[^()]*)?\)`)

// InstructionDecoder decodes the push/pull instruction grammar.
// It is stateless and safe for concurrent use.
type InstructionDecoder struct{}

// Decode returns one record per push or pull instruction in content, in
// textual order. Content without transmissions yields nil.
func (InstructionDecoder) Decode(content string) []model.Transmission {
	var out []model.Transmission
	for _, instr := range strings.Split(content, ";") {
		for _, m := range transmissionPattern.FindAllStringSubmatch(instr, -1) {
			out = append(out, model.Transmission{
				Flow: model.NormalizeName(m[1]),
				Src:  model.NormalizeName(m[2]),
				Sink: model.NormalizeName(m[3]),
			})
		}
	}
	return out
}

// CachingDecoder memoizes another decoder by cell content.
// Identical instructions recur across slots, so one run decodes each
// distinct string once.
type CachingDecoder struct {
	next Decoder

	mu     sync.Mutex
	cache  map[string][]model.Transmission
	hits   int
	misses int
}

// NewCachingDecoder wraps next with a content-keyed cache.
func NewCachingDecoder(next Decoder) *CachingDecoder {
	return &CachingDecoder{
		next:  next,
		cache: make(map[string][]model.Transmission),
	}
}

func (d *CachingDecoder) Decode(content string) []model.Transmission {
	d.mu.Lock()
	defer d.mu.Unlock()

	if recs, ok := d.cache[content]; ok {
		d.hits++
		return recs
	}
	d.misses++
	recs := d.next.Decode(content)
	d.cache[content] = recs
	return recs
}

// Stats returns cache hits and misses since construction.
func (d *CachingDecoder) Stats() (hits, misses int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits, d.misses
}
