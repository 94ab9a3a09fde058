package tablet

import (
	"encoding/json"
	"io"

	"github.com/coredb/syscatalog/consensus"
)

// kvPair is one row carried in a snapshot batch: the raw row key (as
// produced by rowKey) and its metadata value.
type kvPair struct {
	Key   []byte `json:"k"`
	Value []byte `json:"v"`
}

// memBatch is an in-memory consensus.Batch used only to carry snapshot
// rows between a Snapshot's ReadBatch and the receiving side's
// ApplySnapshot. It never touches the kv engine directly; Data()/From()
// round-trip it as a self-contained JSON blob so it can ride over
// whatever transport the surrounding master supplies.
type memBatch struct {
	pairs []kvPair
}

func (b *memBatch) Put(key, value []byte) {
	b.pairs = append(b.pairs, kvPair{Key: append([]byte(nil), key...), Value: append([]byte(nil), value...)})
}

func (b *memBatch) DeleteRange(start, end []byte) {}

func (b *memBatch) Data() []byte {
	data, _ := json.Marshal(b.pairs)
	return data
}

func (b *memBatch) From(data []byte) {
	_ = json.Unmarshal(data, &b.pairs)
}

func (b *memBatch) Close() {}

// rowSnapshot adapts a pair of RowIterators (tables, tablets) to the
// consensus.Snapshot contract, batching one row per ReadBatch call.
type rowSnapshot struct {
	appliedIndex uint64
	term         uint64
	iters        []RowIterator
	cur          int
}

func (s *rowSnapshot) ReadBatch() (consensus.Batch, error) {
	for s.cur < len(s.iters) {
		if s.iters[s.cur] == nil {
			s.cur++
			continue
		}
		if !s.iters[s.cur].Next() {
			if err := s.iters[s.cur].Err(); err != nil {
				return nil, err
			}
			s.iters[s.cur].Close()
			s.cur++
			continue
		}

		row := s.iters[s.cur].Row()
		b := &memBatch{}
		b.Put(rowKey(row.EntryType, row.EntryID), row.Metadata)
		return b, nil
	}
	return nil, io.EOF
}

func (s *rowSnapshot) Term() uint64  { return s.term }
func (s *rowSnapshot) Index() uint64 { return s.appliedIndex }

func (s *rowSnapshot) Close() error {
	for _, it := range s.iters {
		if it != nil {
			it.Close()
		}
	}
	return nil
}
