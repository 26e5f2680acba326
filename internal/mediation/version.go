package mediation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// VersionInfo is the host's numeric version triple.
type VersionInfo struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Micro int `json:"micro"`
}

// Semver returns v as a semantic version, for ordering adapter releases.
func (v VersionInfo) Semver() semver.Version {
	return semver.Version{Major: uint64(v.Major), Minor: uint64(v.Minor), Patch: uint64(v.Micro)}
}

func (v VersionInfo) String() string {
	return v.Semver().String()
}

// ParseAdapterVersion parses the adapter version
// "<sdk major>.<sdk minor>.<sdk patch>.<adapter patch>". The third and fourth
// parts are folded into micro as patch*100 + adapter patch; extra parts are
// ignored.
func ParseAdapterVersion(s string) (VersionInfo, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 4 {
		return VersionInfo{}, fmt.Errorf("adapter version %q: want at least 4 dot separated parts, got %d", s, len(parts))
	}
	nums, err := parseParts(parts[:4])
	if err != nil {
		return VersionInfo{}, fmt.Errorf("adapter version %q: %w", s, err)
	}
	return VersionInfo{Major: nums[0], Minor: nums[1], Micro: nums[2]*100 + nums[3]}, nil
}

// ParseSDKVersion parses a one to three part SDK version; missing parts are
// zero and anything past the third part is ignored.
func ParseSDKVersion(s string) (VersionInfo, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	nums, err := parseParts(parts)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("sdk version %q: %w", s, err)
	}
	var v VersionInfo
	for i, n := range nums {
		switch i {
		case 0:
			v.Major = n
		case 1:
			v.Minor = n
		case 2:
			v.Micro = n
		}
	}
	return v, nil
}

// parseParts reads every part as a plain decimal number. Leading zeros are
// fine, suffixes such as "-rc1" are not.
func parseParts(parts []string) ([]int, error) {
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad part %q", p)
		}
		nums[i] = n
	}
	return nums, nil
}
