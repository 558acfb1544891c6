package mologs

import "testing"

func TestPrettyJSON(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"flat list stays inline", []int{10, 11, 14, 80}, "[10, 11, 14, 80]"},
		{"flat map stays inline", Params{"b": 2, "a": 1}, `{"a": 1, "b": 2}`},
		{"empty map", Params{}, "{}"},
		{"empty list", []any{}, "[]"},
		{"scalar", "hi", `"hi"`},
		{"nil", nil, "null"},
		{
			name:  "nested map breaks across lines",
			value: Params{"a": 1, "b": Params{"c": 2}},
			want:  "{\n    \"a\": 1,\n    \"b\": {\"c\": 2}\n}",
		},
		{
			name:  "list of maps breaks across lines",
			value: []any{Params{"a": 1}, Params{"b": 2}},
			want:  "[\n    {\"a\": 1},\n    {\"b\": 2}\n]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prettyJSON(tt.value); got != tt.want {
				t.Errorf("prettyJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue2JSONCompact(t *testing.T) {
	got := value2json(Params{"b": []int{1, 2}, "a": "x"})
	want := `{"a":"x","b":[1,2]}`
	if got != want {
		t.Errorf("value2json = %q, want %q", got, want)
	}
}
