// Package frame реализует колоночную таблицу точек, через которую
// стадии предобработки траекторий обмениваются данными.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/flybeeper/trajectory-prep/pkg/pool"
)

var (
	// ErrColumnNotFound колонка отсутствует в таблице
	ErrColumnNotFound = errors.New("column not found")

	// ErrLengthMismatch длина колонки не совпадает с количеством строк
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrColumnType колонка имеет другой тип
	ErrColumnType = errors.New("unexpected column type")
)

// Frame колоночная таблица с именованными типизированными колонками
type Frame struct {
	names []string
	cols  map[string]Column
	rows  int
}

// New создает пустую таблицу
func New() *Frame {
	return &Frame{
		names: make([]string, 0),
		cols:  make(map[string]Column),
	}
}

// FromColumns создает таблицу из пар имя/колонка
func FromColumns(names []string, cols []Column) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%d names for %d columns: %w", len(names), len(cols), ErrLengthMismatch)
	}
	f := New()
	for i, name := range names {
		if err := f.Set(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len возвращает количество строк
func (f *Frame) Len() int {
	return f.rows
}

// Names возвращает имена колонок в порядке добавления
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has проверяет наличие всех перечисленных колонок
func (f *Frame) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			return false
		}
	}
	return true
}

// Require возвращает ошибку, если какая-либо колонка отсутствует
func (f *Frame) Require(names ...string) error {
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			return fmt.Errorf("%q: %w", name, ErrColumnNotFound)
		}
	}
	return nil
}

// Column возвращает колонку по имени
func (f *Frame) Column(name string) (Column, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	return col, nil
}

// Float64 возвращает числовую колонку
func (f *Frame) Float64(name string) (Float64Column, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.(Float64Column)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want float64: %w", name, col, ErrColumnType)
	}
	return typed, nil
}

// Int64 возвращает целочисленную колонку
func (f *Frame) Int64(name string) (Int64Column, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.(Int64Column)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want int64: %w", name, col, ErrColumnType)
	}
	return typed, nil
}

// String возвращает строковую колонку
func (f *Frame) String(name string) (StringColumn, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.(StringColumn)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want string: %w", name, col, ErrColumnType)
	}
	return typed, nil
}

// Time возвращает колонку временных меток
func (f *Frame) Time(name string) (TimeColumn, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.(TimeColumn)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want time: %w", name, col, ErrColumnType)
	}
	return typed, nil
}

// Bool возвращает логическую колонку
func (f *Frame) Bool(name string) (BoolColumn, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.(BoolColumn)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want bool: %w", name, col, ErrColumnType)
	}
	return typed, nil
}

// Set создает или заменяет колонку. Первая колонка задает количество строк.
func (f *Frame) Set(name string, col Column) error {
	if len(f.cols) == 0 || (len(f.cols) == 1 && f.Has(name)) {
		f.rows = col.Len()
	} else if col.Len() != f.rows {
		return fmt.Errorf("%q has %d rows, frame has %d: %w", name, col.Len(), f.rows, ErrLengthMismatch)
	}

	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = col
	return nil
}

// Drop удаляет колонки; отсутствующие имена игнорируются
func (f *Frame) Drop(names ...string) {
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			continue
		}
		delete(f.cols, name)
		for i, n := range f.names {
			if n == name {
				f.names = append(f.names[:i], f.names[i+1:]...)
				break
			}
		}
	}
	if len(f.cols) == 0 {
		f.rows = 0
	}
}

// Copy возвращает глубокую копию таблицы
func (f *Frame) Copy() *Frame {
	out := &Frame{
		names: make([]string, len(f.names)),
		cols:  make(map[string]Column, len(f.cols)),
		rows:  f.rows,
	}
	copy(out.names, f.names)
	for name, col := range f.cols {
		out.cols[name] = col.Copy()
	}
	return out
}

// Take возвращает новую таблицу из строк с указанными индексами
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{
		names: make([]string, len(f.names)),
		cols:  make(map[string]Column, len(f.cols)),
		rows:  len(idx),
	}
	copy(out.names, f.names)
	for name, col := range f.cols {
		out.cols[name] = col.Take(idx)
	}
	return out
}

// Filter возвращает строки, для которых маска истинна
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != f.rows {
		return nil, fmt.Errorf("mask has %d rows, frame has %d: %w", len(mask), f.rows, ErrLengthMismatch)
	}
	idx := pool.Global.GetInts()
	defer pool.Global.PutInts(idx)

	for i, keep := range mask {
		if keep {
			*idx = append(*idx, i)
		}
	}
	return f.Take(*idx), nil
}

// Replace заменяет содержимое таблицы содержимым other (для режима inplace)
func (f *Frame) Replace(other *Frame) {
	if f == other {
		return
	}
	f.names = other.names
	f.cols = other.cols
	f.rows = other.rows
}

// MatchMask строит маску строк, значение которых в колонке равно value
func (f *Frame) MatchMask(name string, value interface{}) ([]bool, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}

	mask := make([]bool, f.rows)
	switch typed := col.(type) {
	case StringColumn:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%q compared with %T: %w", name, value, ErrColumnType)
		}
		for i := range typed {
			mask[i] = typed[i] == v
		}
	case Float64Column:
		v, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%q compared with %T: %w", name, value, ErrColumnType)
		}
		for i := range typed {
			mask[i] = typed[i] == v
		}
	case Int64Column:
		v, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("%q compared with %T: %w", name, value, ErrColumnType)
		}
		for i := range typed {
			mask[i] = typed[i] == v
		}
	case BoolColumn:
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%q compared with %T: %w", name, value, ErrColumnType)
		}
		for i := range typed {
			mask[i] = typed[i] == v
		}
	case TimeColumn:
		v, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%q compared with %T: %w", name, value, ErrColumnType)
		}
		for i := range typed {
			mask[i] = typed[i].Equal(v)
		}
	default:
		return nil, fmt.Errorf("%q is %T: %w", name, col, ErrColumnType)
	}
	return mask, nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func toInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	}
	return 0, false
}
