package core

import "testing"

func TestEvaluateRulesBoundary(t *testing.T) {
	linux := HostFingerprint{OSFamily: "linux", Arch: "x64"}
	macos := HostFingerprint{OSFamily: "macos", Arch: "x64"}

	// S3: allow, then disallow on osx.
	rules := []Rule{
		{Action: "allow"},
		{Action: "disallow", OS: &OSRule{Name: "osx"}},
	}
	if !EvaluateRules(rules, linux) {
		t.Error("expected included on linux")
	}
	if EvaluateRules(rules, macos) {
		t.Error("expected excluded on macos")
	}
}

func TestEvaluateRulesEmptyAllows(t *testing.T) {
	if !EvaluateRules(nil, CurrentHost()) {
		t.Error("empty rule list should allow")
	}
}

func TestEvaluateRulesAllFeatureConditionedDenies(t *testing.T) {
	rules := []Rule{
		{Action: "allow", Features: &Features{IsDemoUser: true}},
	}
	if EvaluateRules(rules, CurrentHost()) {
		t.Error("all-feature-conditioned rule list should deny")
	}
}

func TestOSNameNormalization(t *testing.T) {
	h := HostFingerprint{OSFamily: "macos"}
	if h.osName() != "osx" {
		t.Errorf("expected osx, got %s", h.osName())
	}
	h.OSFamily = "linux"
	if h.osName() != "linux" {
		t.Errorf("expected linux, got %s", h.osName())
	}
}
