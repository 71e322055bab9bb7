package relay

import "testing"

func TestWSURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":      "ws://localhost:8080/ws",
		"https://relay.example.com/": "wss://relay.example.com/ws",
		"ws://h/ws":                  "ws://h/ws",
		"http://h/base":              "ws://h/base/ws",
	}
	for in, want := range cases {
		got, err := wsURL(in)
		if err != nil {
			t.Fatalf("wsURL(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("wsURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := wsURL("ftp://h"); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
}
