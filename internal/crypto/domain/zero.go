package domain

// Zero overwrites key material once it is no longer needed.
func Zero(b []byte) {
	clear(b)
}
