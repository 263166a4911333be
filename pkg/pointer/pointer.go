package pointer

func ToPtr[T any](v T) *T {
	return &v
}

// Deref 解引用, nil 时返回零值
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
