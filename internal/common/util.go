package common

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Use after handling secrets such as passwords so they do not linger in
// memory longer than needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
