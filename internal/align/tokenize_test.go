package align

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "hello world how are you today", []string{"hello", "world", "how", "are", "you", "today"}},
		{"sentences", "Hello, world! How's it going?", []string{"Hello", ",", "world", "!", "How", "'s", "it", "going", "?"}},
		{"contraction", "I can't do it.", []string{"I", "ca", "n't", "do", "it", "."}},
		{"quotes", `She said "hi" to me`, []string{"She", "said", "``", "hi", "''", "to", "me"}},
		{"decimal", "It costs 3.5 dollars.", []string{"It", "costs", "3.5", "dollars", "."}},
		{"abbreviation", "Mr. Smith left. We stayed.", []string{"Mr.", "Smith", "left", ".", "We", "stayed", "."}},
		{"vietnamese", "Xin chào, các bạn.", []string{"Xin", "chào", ",", "các", "bạn", "."}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetokenize(t *testing.T) {
	tests := []struct {
		tokens []string
		want   string
	}{
		{[]string{"Hello", ",", "world", "!"}, "Hello, world!"},
		{[]string{"I", "ca", "n't", "do", "it", "."}, "I can't do it."},
		{[]string{"She", "said", "``", "hi", "''", "to", "me"}, `She said "hi" to me`},
		{[]string{"(", "quietly", ")", "yes"}, "(quietly) yes"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Detokenize(tt.tokens); got != tt.want {
			t.Fatalf("Detokenize(%q) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestIsSpecial(t *testing.T) {
	cases := map[string]bool{
		"hello": false,
		"chào":  false,
		"123":   false,
		",":     true,
		"n't":   true,
		"``":    true,
		"3.5":   true,
	}
	for token, want := range cases {
		if got := IsSpecial(token); got != want {
			t.Fatalf("IsSpecial(%q) = %v, want %v", token, got, want)
		}
	}
}
