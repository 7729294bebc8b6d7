package severity

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Bump returns the version that follows current for a change of the given level.
// current may omit the leading "v"; the result keeps the caller's convention.
// Prerelease and build suffixes are dropped. A None level returns current unchanged.
func Bump(current string, l Level) (string, error) {
	prefixed := current
	if !strings.HasPrefix(prefixed, "v") {
		prefixed = "v" + prefixed
	}
	if !semver.IsValid(prefixed) {
		return "", fmt.Errorf("invalid semantic version %q", current)
	}
	if l == None {
		return current, nil
	}

	core := strings.TrimPrefix(semver.Canonical(prefixed), "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	parts := strings.SplitN(core, ".", 3)
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid semantic version %q: %w", current, err)
		}
		nums[i] = n
	}

	switch l {
	case Major:
		nums[0], nums[1], nums[2] = nums[0]+1, 0, 0
	case Minor:
		nums[1], nums[2] = nums[1]+1, 0
	case Patch:
		nums[2]++
	default:
		return "", fmt.Errorf("invalid severity level %d", int(l))
	}

	next := fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2])
	if strings.HasPrefix(current, "v") {
		next = "v" + next
	}
	return next, nil
}
