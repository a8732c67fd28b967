package pps

import "testing"

// These expected request codes were computed independently (outside this
// module) from the Linux _IOC encoding using the same struct sizes; they
// pin the values this package's iocNumber must keep producing.
func TestIoctlRequestCodesMatchKernelABI(t *testing.T) {
	cases := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"GETPARAMS", reqGetParams, 0x802870a1},
		{"SETPARAMS", reqSetParams, 0x402870a2},
		{"GETCAP", reqGetCap, 0x800470a3},
		{"FETCH", reqFetch, 0xc03c70a4},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %#x, want %#x", c.name, c.got, c.want)
		}
	}
}
