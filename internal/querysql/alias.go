package querysql

// Alias returns the spreadsheet-column code for a 1-based index:
// 1 → "A", 26 → "Z", 27 → "AA", 702 → "ZZ", 703 → "AAA".
func Alias(n int) string {
	if n < 1 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// AliasAllocator hands out fresh aliases in order. One allocator belongs to
// one join tree; allocators are never shared between queries.
type AliasAllocator struct {
	next int
}

// Next returns the next unused alias.
func (a *AliasAllocator) Next() string {
	a.next++
	return Alias(a.next)
}

// Allocated returns how many aliases have been handed out.
func (a *AliasAllocator) Allocated() int {
	return a.next
}
