package color

import (
	"strings"
	"testing"
)

func TestMarshalYAML(t *testing.T) {
	data := map[string]any{
		"status":  "completed",
		"success": true,
		"outputs": map[string]any{"token": "tok-1"},
	}

	c := New()
	c.SetEnabled(true)
	colored, err := c.MarshalYAML(data)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(string(colored), escape) {
		t.Error("expected ANSI escapes in colored output")
	}

	c.SetEnabled(false)
	plain, err := c.MarshalYAML(data)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if strings.Contains(string(plain), escape) {
		t.Error("plain output must not contain ANSI escapes")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(envColor, "1")
	if !New().IsEnabled() {
		t.Errorf("expected color enabled with %s=1", envColor)
	}

	t.Setenv(envColor, "0")
	if New().IsEnabled() {
		t.Errorf("expected color disabled with %s=0", envColor)
	}

	t.Setenv(envColor, "not-a-bool")
	c := New()
	c.SetEnabled(true)
	if !c.IsEnabled() {
		t.Error("SetEnabled must override the environment")
	}
}
