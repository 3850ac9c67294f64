package manifest

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings numerically,
// component by component. Missing trailing components count as zero,
// so "1.0" equals "1.0.0". Pre-release and build suffixes are ignored.
// Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	pa := versionComponents(a)
	pb := versionComponents(b)

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var va, vb int
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
	}
	return 0
}

func versionComponents(v string) []int {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
