package frame

import (
	"math"
	"strconv"
	"time"
)

// Column типизированная колонка таблицы
type Column interface {
	// Len возвращает количество строк
	Len() int

	// Take собирает новую колонку из строк с указанными индексами
	Take(idx []int) Column

	// Copy возвращает независимую копию колонки
	Copy() Column

	// Less сравнивает значения строк i и j (для сортировки)
	Less(i, j int) bool

	// Equal проверяет равенство значений строк i и j
	Equal(i, j int) bool

	// Format возвращает строковое представление значения
	Format(i int) string
}

// Float64Column колонка чисел; NaN означает отсутствие значения
type Float64Column []float64

func (c Float64Column) Len() int { return len(c) }

func (c Float64Column) Take(idx []int) Column {
	out := make(Float64Column, len(idx))
	for k, i := range idx {
		out[k] = c[i]
	}
	return out
}

func (c Float64Column) Copy() Column {
	out := make(Float64Column, len(c))
	copy(out, c)
	return out
}

// Less упорядочивает NaN после всех чисел
func (c Float64Column) Less(i, j int) bool {
	a, b := c[i], c[j]
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// Equal считает два NaN равными
func (c Float64Column) Equal(i, j int) bool {
	a, b := c[i], c[j]
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func (c Float64Column) Format(i int) string {
	if math.IsNaN(c[i]) {
		return ""
	}
	return strconv.FormatFloat(c[i], 'f', -1, 64)
}

// IsNull сообщает, отсутствует ли значение в строке i
func (c Float64Column) IsNull(i int) bool {
	return math.IsNaN(c[i])
}

// NewNullFloat64Column создает колонку из n пустых значений
func NewNullFloat64Column(n int) Float64Column {
	out := make(Float64Column, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Int64Column колонка целых чисел
type Int64Column []int64

func (c Int64Column) Len() int { return len(c) }

func (c Int64Column) Take(idx []int) Column {
	out := make(Int64Column, len(idx))
	for k, i := range idx {
		out[k] = c[i]
	}
	return out
}

func (c Int64Column) Copy() Column {
	out := make(Int64Column, len(c))
	copy(out, c)
	return out
}

func (c Int64Column) Less(i, j int) bool  { return c[i] < c[j] }
func (c Int64Column) Equal(i, j int) bool { return c[i] == c[j] }
func (c Int64Column) Format(i int) string { return strconv.FormatInt(c[i], 10) }

// StringColumn колонка строк
type StringColumn []string

func (c StringColumn) Len() int { return len(c) }

func (c StringColumn) Take(idx []int) Column {
	out := make(StringColumn, len(idx))
	for k, i := range idx {
		out[k] = c[i]
	}
	return out
}

func (c StringColumn) Copy() Column {
	out := make(StringColumn, len(c))
	copy(out, c)
	return out
}

func (c StringColumn) Less(i, j int) bool  { return c[i] < c[j] }
func (c StringColumn) Equal(i, j int) bool { return c[i] == c[j] }
func (c StringColumn) Format(i int) string { return c[i] }

// TimeColumn колонка временных меток
type TimeColumn []time.Time

func (c TimeColumn) Len() int { return len(c) }

func (c TimeColumn) Take(idx []int) Column {
	out := make(TimeColumn, len(idx))
	for k, i := range idx {
		out[k] = c[i]
	}
	return out
}

func (c TimeColumn) Copy() Column {
	out := make(TimeColumn, len(c))
	copy(out, c)
	return out
}

func (c TimeColumn) Less(i, j int) bool  { return c[i].Before(c[j]) }
func (c TimeColumn) Equal(i, j int) bool { return c[i].Equal(c[j]) }
func (c TimeColumn) Format(i int) string { return c[i].Format(time.RFC3339Nano) }

// BoolColumn колонка логических значений
type BoolColumn []bool

func (c BoolColumn) Len() int { return len(c) }

func (c BoolColumn) Take(idx []int) Column {
	out := make(BoolColumn, len(idx))
	for k, i := range idx {
		out[k] = c[i]
	}
	return out
}

func (c BoolColumn) Copy() Column {
	out := make(BoolColumn, len(c))
	copy(out, c)
	return out
}

func (c BoolColumn) Less(i, j int) bool  { return !c[i] && c[j] }
func (c BoolColumn) Equal(i, j int) bool { return c[i] == c[j] }
func (c BoolColumn) Format(i int) string { return strconv.FormatBool(c[i]) }
