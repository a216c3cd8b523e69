package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestArgumentEntry_RoundTrip_BareString covers the unconditional dialect:
// marshal must produce the same bare JSON string it was parsed from.
func TestArgumentEntry_RoundTrip_BareString(t *testing.T) {
	raw := []byte(`"--username"`)

	var entry ArgumentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Rules != nil {
		t.Errorf("expected nil rules for a bare string entry, got %v", entry.Rules)
	}
	if !reflect.DeepEqual(entry.Values, []string{"--username"}) {
		t.Errorf("values = %v, want [--username]", entry.Values)
	}

	out, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("round trip = %s, want %s", out, raw)
	}
}

// TestArgumentEntry_RoundTrip_ConditionalSingleValue covers the {rules,
// value} dialect with a scalar value.
func TestArgumentEntry_RoundTrip_ConditionalSingleValue(t *testing.T) {
	raw := []byte(`{"rules":[{"action":"allow","os":{"name":"osx"}}],"value":"-XstartOnFirstThread"}`)

	var entry ArgumentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entry.Rules) != 1 || entry.Rules[0].OS == nil || entry.Rules[0].OS.Name != "osx" {
		t.Fatalf("rules not parsed correctly: %+v", entry.Rules)
	}
	if !reflect.DeepEqual(entry.Values, []string{"-XstartOnFirstThread"}) {
		t.Errorf("values = %v, want [-XstartOnFirstThread]", entry.Values)
	}

	var reparsed ArgumentEntry
	out, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(out, &reparsed); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(entry, reparsed) {
		t.Errorf("round trip mismatch: %+v != %+v", entry, reparsed)
	}
}

// TestArgumentEntry_RoundTrip_ConditionalMultiValue covers the {rules,
// value} dialect with a multi-token value, as used by quick-play args.
func TestArgumentEntry_RoundTrip_ConditionalMultiValue(t *testing.T) {
	raw := []byte(`{"rules":[{"action":"allow","features":{"is_quick_play_singleplayer":true}}],"value":["--quickPlaySingleplayer","${quickPlaySingleplayer}"]}`)

	var entry ArgumentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entry.Rules) != 1 || entry.Rules[0].Features == nil || !entry.Rules[0].Features.IsQuickPlaySingle {
		t.Fatalf("rules not parsed correctly: %+v", entry.Rules)
	}
	if !reflect.DeepEqual(entry.Values, []string{"--quickPlaySingleplayer", "${quickPlaySingleplayer}"}) {
		t.Errorf("values = %v, want [--quickPlaySingleplayer ${quickPlaySingleplayer}]", entry.Values)
	}

	var reparsed ArgumentEntry
	out, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(out, &reparsed); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(entry, reparsed) {
		t.Errorf("round trip mismatch: %+v != %+v", entry, reparsed)
	}
}

// TestVersionDetails_RoundTrip parses a full modern-dialect descriptor,
// serializes it back, and reparses it, checking the argument templates
// agree at every hop.
func TestVersionDetails_RoundTrip(t *testing.T) {
	raw := []byte(`{
		"id": "1.20.1",
		"mainClass": "net.minecraft.client.main.Main",
		"arguments": {
			"game": ["--username", {"rules":[{"action":"allow","os":{"name":"osx"}}],"value":"--demo"}],
			"jvm": ["-Xmx2G"]
		},
		"libraries": []
	}`)

	var first VersionDetails
	if err := json.Unmarshal(raw, &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.IsLegacy() {
		t.Error("descriptor with an arguments block must not be legacy")
	}
	if len(first.GameArgsTemplate()) != 2 {
		t.Fatalf("expected 2 game arg entries, got %d", len(first.GameArgsTemplate()))
	}
	if len(first.JVMArgsTemplate()) != 1 {
		t.Fatalf("expected 1 jvm arg entry, got %d", len(first.JVMArgsTemplate()))
	}

	out, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var second VersionDetails
	if err := json.Unmarshal(out, &second); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(first.GameArgsTemplate(), second.GameArgsTemplate()) {
		t.Errorf("game args changed across round trip: %+v != %+v", first.GameArgsTemplate(), second.GameArgsTemplate())
	}
	if !reflect.DeepEqual(first.JVMArgsTemplate(), second.JVMArgsTemplate()) {
		t.Errorf("jvm args changed across round trip: %+v != %+v", first.JVMArgsTemplate(), second.JVMArgsTemplate())
	}
}

// TestVersionDetails_LegacyArguments_SynthesizesTemplate covers the
// pre-"arguments"-dialect descriptors, where minecraftArguments is a
// single whitespace-delimited string and JVM args don't exist at all.
func TestVersionDetails_LegacyArguments_SynthesizesTemplate(t *testing.T) {
	v := VersionDetails{
		ID:                 "1.7.10",
		MinecraftArguments: "--username ${auth_player_name} --version ${version_name}",
	}
	if !v.IsLegacy() {
		t.Error("descriptor with no arguments block must be legacy")
	}

	game := v.GameArgsTemplate()
	want := []string{"--username", "${auth_player_name}", "--version", "${version_name}"}
	if len(game) != len(want) {
		t.Fatalf("got %d game arg entries, want %d", len(game), len(want))
	}
	for i, entry := range game {
		if entry.Rules != nil {
			t.Errorf("legacy entry %d should carry no rules, got %v", i, entry.Rules)
		}
		if len(entry.Values) != 1 || entry.Values[0] != want[i] {
			t.Errorf("legacy entry %d = %v, want [%s]", i, entry.Values, want[i])
		}
	}

	if jvm := v.JVMArgsTemplate(); jvm != nil {
		t.Errorf("legacy descriptor should carry no jvm args, got %v", jvm)
	}
}

func TestVersionType(t *testing.T) {
	types := []VersionType{
		VersionTypeRelease,
		VersionTypeSnapshot,
		VersionTypeOldBeta,
		VersionTypeOldAlpha,
	}

	for _, vt := range types {
		if string(vt) == "" {
			t.Errorf("VersionType should not be empty string")
		}
	}
}

func TestLoaderType(t *testing.T) {
	types := []LoaderType{
		LoaderVanilla,
		LoaderFabric,
		LoaderForge,
		LoaderQuilt,
		LoaderNeoForge,
	}

	for _, lt := range types {
		if string(lt) == "" {
			t.Errorf("LoaderType should not be empty string")
		}
	}
}
