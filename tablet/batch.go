package tablet

import "encoding/json"

// ProposalBatch is the wire payload of one consensus proposal: the ordered
// row operations of a single catalog Write() call, per spec.md §4.5's
// ordering contract (table add, table update, table delete, tablet
// add/update/delete).
type ProposalBatch struct {
	Ops []RowOp `json:"ops"`
}

func (b *ProposalBatch) Marshal() ([]byte, error) { return json.Marshal(b) }

func (b *ProposalBatch) Unmarshal(data []byte) error { return json.Unmarshal(data, b) }
