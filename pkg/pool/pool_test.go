package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPools_Float64sAreReset(t *testing.T) {
	buf := Global.GetFloat64s()
	*buf = append(*buf, 1, 2, 3)
	Global.PutFloat64s(buf)

	again := Global.GetFloat64s()
	assert.Empty(t, *again)
	Global.PutFloat64s(again)
}

func TestObjectPools_IntsAndBytes(t *testing.T) {
	ints := Global.GetInts()
	*ints = append(*ints, 7)
	assert.Equal(t, []int{7}, *ints)
	Global.PutInts(ints)
	assert.Empty(t, *Global.GetInts())

	b := Global.GetByteSlice()
	b = append(b, 'x')
	Global.PutByteSlice(b)
	assert.Empty(t, Global.GetByteSlice())
}
