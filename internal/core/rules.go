package core

import "runtime"

// HostFingerprint describes the current platform for rule evaluation.
type HostFingerprint struct {
	OSFamily string // "windows", "macos", "linux"
	Arch     string // "x86", "x64", "arm64"
}

// CurrentHost derives a HostFingerprint from the running process.
func CurrentHost() HostFingerprint {
	family := runtime.GOOS
	if family == "darwin" {
		family = "macos"
	}

	arch := "x64"
	switch runtime.GOARCH {
	case "arm64":
		arch = "arm64"
	case "386":
		arch = "x86"
	case "amd64":
		arch = "x64"
	}

	return HostFingerprint{OSFamily: family, Arch: arch}
}

// osName normalizes the host family the way rule.os.name is written upstream:
// macos is spelled "osx", everything else keeps its family name.
func (h HostFingerprint) osName() string {
	if h.OSFamily == "macos" {
		return "osx"
	}
	return h.OSFamily
}

// OSName exposes osName for callers outside this package that need to key
// into natives maps written with the upstream osx/linux/windows spelling.
func (h HostFingerprint) OSName() string {
	return h.osName()
}

// EvaluateRules applies the four-clause allow/disallow rule language:
//  1. a rule with Features is never-match (feature-conditioned entries are
//     always discarded, since the core always evaluates with an empty
//     feature set),
//  2. a rule with OS matches iff every populated field (name/arch) equals
//     the host's,
//  3. a matching "allow" rule votes allow, a matching "disallow" rule votes
//     deny, non-matching rules contribute nothing,
//  4. the last matching rule wins; with no match at all, empty rule lists
//     default to allow and non-empty ones default to deny.
func EvaluateRules(rules []Rule, host HostFingerprint) bool {
	if len(rules) == 0 {
		return true
	}

	matched := false
	allow := false
	for _, r := range rules {
		if r.Features != nil {
			continue
		}
		if !osMatches(r.OS, host) {
			continue
		}
		matched = true
		allow = r.Action == "allow"
	}

	if !matched {
		return false
	}
	return allow
}

func osMatches(os *OSRule, host HostFingerprint) bool {
	if os == nil {
		return true
	}
	if os.Name != "" && os.Name != host.osName() {
		return false
	}
	if os.Arch != "" && os.Arch != host.Arch {
		return false
	}
	return true
}

// IncludedLibrary reports whether a library's rules allow it on this host.
func IncludedLibrary(lib Library, host HostFingerprint) bool {
	return EvaluateRules(lib.Rules, host)
}
