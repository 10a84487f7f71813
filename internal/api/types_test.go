package api

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPythonResponseToleratesPHPEmptyArrays(t *testing.T) {
	body := `{
		"success": true,
		"installed": false,
		"installed_list": [],
		"required": {"0": "numpy", "1": "pillow"},
		"optional": [],
		"boost": null,
		"available_algorithms": ["dhash", "phash"],
		"video_required": [],
		"errors": [],
		"warnings": ["pip is old"]
	}`
	var r PythonResponse
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.InstalledList == nil || len(r.InstalledList) != 0 {
		t.Fatalf("installed_list should be empty map: %#v", r.InstalledList)
	}
	if !reflect.DeepEqual([]string(r.Required), []string{"numpy", "pillow"}) {
		t.Fatalf("required: %v", r.Required)
	}
	if r.Boost != nil {
		t.Fatalf("boost should be nil: %v", r.Boost)
	}
	if len(r.Warnings) != 1 {
		t.Fatalf("warnings: %v", r.Warnings)
	}
}

func TestInstalledListDecodesNestedEmptyArrays(t *testing.T) {
	body := `{"required": {"numpy": {"package": "numpy", "location": "global"}}, "boost": []}`
	var l InstalledList
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l["required"]["numpy"].Location != "global" {
		t.Fatalf("unexpected: %#v", l)
	}
	if b, ok := l["boost"]; !ok || len(b) != 0 {
		t.Fatalf("boost should be present and empty: %#v", l)
	}
}

func TestDecodeInstalledStringOrObject(t *testing.T) {
	inner := `{"status":true,"installed_list":{},"not_installed_list":{"required":["a"]},"available_algorithms":[],"video_required":["ffmpeg"]}`
	quoted, _ := json.Marshal(inner)

	for name, raw := range map[string][]byte{"string": quoted, "object": []byte(inner)} {
		v, err := Setting{Name: "installed", Value: raw}.DecodeInstalled()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !v.Status || v.NotInstalledList.Required[0] != "a" || v.VideoRequired[0] != "ffmpeg" {
			t.Fatalf("%s: unexpected %+v", name, v)
		}
	}
}

func TestDecodeInstalledMalformed(t *testing.T) {
	for _, raw := range []string{`"{not json"`, `null`, ``, `"[1,2]"`} {
		if _, err := (Setting{Name: "installed", Value: []byte(raw)}).DecodeInstalled(); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestStringListSparseKeysInNumericOrder(t *testing.T) {
	var l StringList
	if err := json.Unmarshal([]byte(`{"10":"c","0":"a","2":"b","x":"d"}`), &l); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual([]string(l), []string{"a", "b", "c", "d"}) {
		t.Fatalf("got %v", l)
	}
}

func TestWithInstalledKeepsUnknownKeys(t *testing.T) {
	inner := `{"status":false,"installed_list":{},"not_installed_list":{},"available_algorithms":[],"video_required":[],"python_version":"3.11","extra":{"a":1}}`
	s := Setting{ID: 3, Name: "installed", Value: []byte(inner)}
	v, err := s.DecodeInstalled()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v.Status = true
	out, err := s.WithInstalled(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(out.Value, &obj); err != nil {
		t.Fatalf("value is not an object: %v", err)
	}
	if string(obj["python_version"]) != `"3.11"` || string(obj["extra"]) != `{"a":1}` {
		t.Fatalf("unknown keys lost: %s", out.Value)
	}
	if string(obj["status"]) != "true" {
		t.Fatalf("status not overwritten: %s", out.Value)
	}
}
