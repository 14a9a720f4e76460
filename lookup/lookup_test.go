package lookup

import "testing"

func TestQuery(t *testing.T) {
	cases := []struct{ name, location, want string }{
		{"Pasta Palace", "Rome", "Pasta Palace near Rome"},
		{"Pasta Palace", "", "Pasta Palace"},
		{" Pasta Palace ", "  ", "Pasta Palace"},
	}
	for _, tc := range cases {
		if got := Query(tc.name, tc.location); got != tc.want {
			t.Errorf("Query(%q, %q) = %q, want %q", tc.name, tc.location, got, tc.want)
		}
	}
}
