package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOCKBOARD_TEST_MODE", "1")
		if os.Getenv("SHEETS_SPREADSHEET_ID") != "" {
			_ = os.Unsetenv("SHEETS_SPREADSHEET_ID")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
