package ephem

import "testing"

func TestBodyString(t *testing.T) {
	tests := []struct {
		body     Body
		expected string
	}{
		{Sun, "Sun"},
		{Moon, "Moon"},
		{Body(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.body.String(); got != tc.expected {
				t.Errorf("Body(%d).String() = %q, want %q", tc.body, got, tc.expected)
			}
		})
	}
}

func TestEventStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{NewMoon.String(), "new moon"},
		{FullMoon.String(), "full moon"},
		{PhaseEvent(7).String(), "unknown"},
		{Perigee.String(), "perigee"},
		{Apogee.String(), "apogee"},
		{ApsisEvent(7).String(), "unknown"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("String() = %q, want %q", tc.got, tc.want)
		}
	}
}
