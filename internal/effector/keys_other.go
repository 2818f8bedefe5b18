//go:build !linux

package effector

// initKeys is a no-op; robotgo needs no setup here.
func initKeys() error {
	return nil
}

func tapKey(key string) error {
	return robotgoTap(key)
}
