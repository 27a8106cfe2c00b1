package frame

import "sort"

// Group непрерывный диапазон [Start, End) перестановки с одинаковыми ключами
type Group struct {
	Start int
	End   int
}

// Len возвращает количество строк в группе
func (g Group) Len() int {
	return g.End - g.Start
}

// SortIndex возвращает стабильную перестановку строк, упорядоченную по ключам
func SortIndex(f *Frame, keys ...string) ([]int, error) {
	cols, err := keyColumns(f, keys)
	if err != nil {
		return nil, err
	}

	perm := make([]int, f.Len())
	for i := range perm {
		perm[i] = i
	}

	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		for _, col := range cols {
			if col.Less(i, j) {
				return true
			}
			if col.Less(j, i) {
				return false
			}
		}
		return false
	})

	return perm, nil
}

// GroupRanges разбивает перестановку на диапазоны строк с равными значениями ключей.
// Без ключей вся перестановка образует одну группу.
func GroupRanges(f *Frame, perm []int, keys ...string) ([]Group, error) {
	cols, err := keyColumns(f, keys)
	if err != nil {
		return nil, err
	}
	if len(perm) == 0 {
		return nil, nil
	}

	groups := make([]Group, 0)
	start := 0
	for k := 1; k < len(perm); k++ {
		if !sameKeys(cols, perm[k-1], perm[k]) {
			groups = append(groups, Group{Start: start, End: k})
			start = k
		}
	}
	groups = append(groups, Group{Start: start, End: len(perm)})

	return groups, nil
}

// GroupCounts возвращает размер группы для каждой строки таблицы
func GroupCounts(f *Frame, keys ...string) ([]int, error) {
	perm, err := SortIndex(f, keys...)
	if err != nil {
		return nil, err
	}
	groups, err := GroupRanges(f, perm, keys...)
	if err != nil {
		return nil, err
	}

	counts := make([]int, f.Len())
	for _, g := range groups {
		for k := g.Start; k < g.End; k++ {
			counts[perm[k]] = g.Len()
		}
	}
	return counts, nil
}

func keyColumns(f *Frame, keys []string) ([]Column, error) {
	cols := make([]Column, len(keys))
	for i, key := range keys {
		col, err := f.Column(key)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

func sameKeys(cols []Column, i, j int) bool {
	for _, col := range cols {
		if !col.Equal(i, j) {
			return false
		}
	}
	return true
}
