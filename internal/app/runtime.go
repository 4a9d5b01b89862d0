package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "TNE_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
})

// InTestMode reports whether TNE_TEST_MODE asks the binaries to skip
// connecting to Redis, the backend and Gotenberg. The flag is read once.
func InTestMode() bool {
	return testMode()
}
