package utils

func RefPointer[T any](v T) *T {
	return &v
}

func DerefPointer[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
