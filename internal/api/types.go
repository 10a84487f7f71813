package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// InstalledSettingName is the setting that tracks Python dependency state.
const InstalledSettingName = "installed"

// LocationGlobal marks packages provided by the system interpreter.
// They are never deleted or updated through the API.
const LocationGlobal = "global"

// Setting is a named record persisted by the MediaDC backend.
// Value holds the raw JSON: a JSON string when fetched, an object when
// sent back with PutSetting.
type Setting struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name"`
	Value       json.RawMessage `json:"value"`
	DisplayName string          `json:"display_name,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Package is one installed Python package and where it lives.
type Package struct {
	Package  string `json:"package"`
	Location string `json:"location"`
}

// PackageSet maps package name to its record.
type PackageSet map[string]Package

// InstalledList maps a dependency list name (required, optional, boost) to its packages.
type InstalledList map[string]PackageSet

// StringList decodes a JSON array of strings. PHP encodes empty and
// associative arrays as objects, so an object is accepted too and its
// values (or keys, for non-string values) are taken in key order, with
// integer keys compared numerically.
type StringList []string

// NotInstalledList groups missing dependencies by priority tier.
type NotInstalledList struct {
	Required StringList `json:"required"`
	Optional StringList `json:"optional"`
	Boost    StringList `json:"boost"`
}

// InstalledValue is the decoded value of the installed setting.
type InstalledValue struct {
	Status              bool             `json:"status"`
	InstalledList       InstalledList    `json:"installed_list"`
	NotInstalledList    NotInstalledList `json:"not_installed_list"`
	AvailableAlgorithms StringList       `json:"available_algorithms"`
	VideoRequired       StringList       `json:"video_required"`

	// Extra holds keys the client does not interpret; they are written
	// back unchanged by WithInstalled.
	Extra map[string]json.RawMessage `json:"-"`
}

var installedKeys = map[string]bool{
	"status":               true,
	"installed_list":       true,
	"not_installed_list":   true,
	"available_algorithms": true,
	"video_required":       true,
}

// SettingsResponse is the payload of GET settings.
type SettingsResponse struct {
	Success  bool      `json:"success"`
	Settings []Setting `json:"settings"`
}

// SettingResponse is the payload of GET settings/name/{name}.
type SettingResponse struct {
	Success bool    `json:"success"`
	Setting Setting `json:"setting"`
}

// PythonResponse is returned by every python/* endpoint.
type PythonResponse struct {
	Success             bool          `json:"success"`
	Installed           bool          `json:"installed"`
	InstalledList       InstalledList `json:"installed_list"`
	Required            StringList    `json:"required"`
	Optional            StringList    `json:"optional"`
	Boost               StringList    `json:"boost"`
	AvailableAlgorithms StringList    `json:"available_algorithms"`
	VideoRequired       StringList    `json:"video_required"`
	Errors              StringList    `json:"errors"`
	Warnings            StringList    `json:"warnings"`
}

// DecodeInstalled parses the nested JSON document held in s.Value.
func (s Setting) DecodeInstalled() (InstalledValue, error) {
	var v InstalledValue
	raw := bytes.TrimSpace(s.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, fmt.Errorf("setting %q has no value", s.Name)
	}
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return v, err
		}
		raw = []byte(str)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return v, err
	}
	for k, r := range all {
		if installedKeys[k] {
			continue
		}
		if v.Extra == nil {
			v.Extra = map[string]json.RawMessage{}
		}
		v.Extra[k] = r
	}
	return v, nil
}

// WithInstalled returns a copy of s whose value is v encoded as an object.
func (s Setting) WithInstalled(v InstalledValue) (Setting, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return s, err
	}
	if len(v.Extra) > 0 {
		obj := map[string]json.RawMessage{}
		if err := json.Unmarshal(b, &obj); err != nil {
			return s, err
		}
		for k, r := range v.Extra {
			if !installedKeys[k] {
				obj[k] = r
			}
		}
		if b, err = json.Marshal(obj); err != nil {
			return s, err
		}
	}
	s.Value = b
	return s, nil
}

func (p *PackageSet) UnmarshalJSON(b []byte) error {
	if isEmptyArray(b) {
		*p = PackageSet{}
		return nil
	}
	m := map[string]Package{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = m
	return nil
}

func (l *InstalledList) UnmarshalJSON(b []byte) error {
	if isEmptyArray(b) {
		*l = InstalledList{}
		return nil
	}
	m := map[string]PackageSet{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

func (s *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if b[0] == '[' {
		var arr []string
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*s = arr
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		var v string
		if err := json.Unmarshal(obj[k], &v); err == nil {
			out = append(out, v)
		} else {
			out = append(out, k)
		}
	}
	*s = out
	return nil
}

// lessKey orders PHP array keys: integers numerically and before strings.
func lessKey(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

func isEmptyArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) < 2 || b[0] != '[' {
		return false
	}
	return len(bytes.TrimSpace(b[1:len(b)-1])) == 0
}
