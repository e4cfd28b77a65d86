package db

// WriteTask 一条待落库的写请求
type WriteTask struct {
	Key   []byte
	Value []byte
	Op    WriteOp // 可以是 “Set” or “Delete”
}

type WriteOp int

const (
	OpSet WriteOp = iota
	OpDelete
)

func (op WriteOp) String() string {
	if op == OpDelete {
		return "delete"
	}
	return "set"
}
