//go:build cgo

package archive

import "testing"

func TestStore_RoundTrip_Mattn(t *testing.T) {
	testStoreRoundTrip(t, DriverMattn)
}
