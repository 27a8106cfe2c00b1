package pool

import (
	"sync"
)

// ObjectPools содержит пулы буферов для переиспользования
type ObjectPools struct {
	// Слайсы
	float64SlicePool sync.Pool
	intSlicePool     sync.Pool
	byteSlicePool    sync.Pool
}

// Global пулы объектов
var Global = &ObjectPools{
	float64SlicePool: sync.Pool{
		New: func() interface{} {
			s := make([]float64, 0, 256)
			return &s
		},
	},
	intSlicePool: sync.Pool{
		New: func() interface{} {
			s := make([]int, 0, 256)
			return &s
		},
	},
	byteSlicePool: sync.Pool{
		New: func() interface{} {
			return make([]byte, 0, 256)
		},
	},
}

// GetFloat64s получает пустой []float64 из пула
func (p *ObjectPools) GetFloat64s() *[]float64 {
	s := p.float64SlicePool.Get().(*[]float64)
	*s = (*s)[:0]
	return s
}

// PutFloat64s возвращает []float64 в пул
func (p *ObjectPools) PutFloat64s(s *[]float64) {
	p.float64SlicePool.Put(s)
}

// GetInts получает пустой []int из пула
func (p *ObjectPools) GetInts() *[]int {
	s := p.intSlicePool.Get().(*[]int)
	*s = (*s)[:0]
	return s
}

// PutInts возвращает []int в пул
func (p *ObjectPools) PutInts(s *[]int) {
	p.intSlicePool.Put(s)
}

// GetByteSlice получает []byte из пула
func (p *ObjectPools) GetByteSlice() []byte {
	return p.byteSlicePool.Get().([]byte)[:0]
}

// PutByteSlice возвращает []byte в пул
func (p *ObjectPools) PutByteSlice(b []byte) {
	p.byteSlicePool.Put(b)
}
