// File: network/main_test.go
// Author: momentics <momentics@gmail.com>

package network

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
