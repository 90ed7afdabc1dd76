package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestString_LenientDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want String
	}{
		{"string", `"abc"`, "abc"},
		{"number", `42`, "42"},
		{"float", `1.5`, "1.5"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"object", `{"x": 1}`, ""},
		{"array", `[1, 2]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s String
			if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, s)
			}
		})
	}
}

func TestStringList_ScalarOrList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want StringList
	}{
		{"list", `["a", "b"]`, StringList{"a", "b"}},
		{"scalar", `"a"`, StringList{"a"}},
		{"number scalar", `7`, StringList{"7"}},
		{"mixed list", `["a", 2]`, StringList{"a", "2"}},
		{"null", `null`, StringList{}},
		{"empty list", `[]`, StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			if err := json.Unmarshal([]byte(tt.raw), &l); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(l, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, l)
			}
		})
	}
}

func TestAttributeSet_Flatten(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"map form", `{"fit": ["slim"], "fabric": "cotton"}`, "fabric:cotton fit:slim"},
		{"list form", `["fit:slim", "fabric:cotton"]`, "fit:slim fabric:cotton"},
		{"null", `null`, ""},
		{"scalar", `"loose"`, "loose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a AttributeSet
			if err := json.Unmarshal([]byte(tt.raw), &a); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := a.Flatten(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrice_LenientDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"object form", `{"final_price": 29.99}`, 29.99},
		{"object with string", `{"final_price": "12.50"}`, 12.5},
		{"bare number", `19.95`, 19.95},
		{"numeric string", `"7.25"`, 7.25},
		{"negative clamps to zero", `-5`, 0},
		{"garbage string", `"free"`, 0},
		{"null", `null`, 0},
		{"absurd magnitude", `1e300`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if p.Value() != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, p.Value())
			}
		})
	}
}
