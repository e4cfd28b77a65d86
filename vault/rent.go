package vault

import (
	"math"
	"math/bits"
)

// Rent 宿主的存储费模型：账户余额不低于 MinimumBalance(size) 即视为永久免租
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	// StorageOverhead 每个账户的元数据开销，计入 size
	StorageOverhead uint64
}

// DefaultRent 与主网参数一致
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2.0,
		StorageOverhead:     128,
	}
}

// MinimumBalance 保存 dataLen 字节数据所需的最低余额
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	size, carry := bits.Add64(r.StorageOverhead, dataLen, 0)
	hi, perYear := bits.Mul64(size, r.LamportsPerByteYear)
	if carry != 0 || hi != 0 {
		return math.MaxUint64
	}
	v := float64(perYear) * r.ExemptionThreshold
	if v >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(v)
}

// IsExempt lamports 是否足以覆盖 dataLen 字节的永久存储
func (r Rent) IsExempt(lamports, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
