// Package color configures colored CLI output and renders run results as
// colorized YAML.
package color

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/lexer"
	"github.com/goccy/go-yaml/printer"
)

const envColor = "TESTPILOT_COLOR"

type Color = color.Color

// Config holds the color instances used by the CLI renderer.
type Config struct {
	enabled *bool // nil means follow color.NoColor
	red     *Color
	hiRed   *Color
	green   *Color
	yellow  *Color
	blue    *Color
	cyan    *Color
	white   *Color
	colors  []*Color
}

// New returns a color configuration initialized from the TESTPILOT_COLOR
// environment variable.
func New() *Config {
	c := &Config{
		red:    color.New(color.FgRed),
		hiRed:  color.New(color.FgHiRed),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
		cyan:   color.New(color.FgCyan),
		white:  color.New(color.FgWhite),
	}
	c.colors = []*Color{c.red, c.hiRed, c.green, c.yellow, c.blue, c.cyan, c.white}
	if env := os.Getenv(envColor); env != "" {
		if enabled, err := strconv.ParseBool(env); err == nil {
			c.enabled = &enabled
			c.update()
		}
	}
	return c
}

func (c *Config) update() {
	if c.enabled == nil {
		return
	}
	for _, instance := range c.colors {
		if *c.enabled {
			instance.EnableColor()
		} else {
			instance.DisableColor()
		}
	}
}

// IsEnabled reports whether colored output is active.
func (c *Config) IsEnabled() bool {
	if c != nil && c.enabled != nil {
		return *c.enabled
	}
	return !color.NoColor
}

// SetEnabled overrides the environment-derived setting.
func (c *Config) SetEnabled(enabled bool) {
	c.enabled = &enabled
	c.update()
}

func (c *Config) Red() *Color    { return c.red }
func (c *Config) HiRed() *Color  { return c.hiRed }
func (c *Config) Green() *Color  { return c.green }
func (c *Config) Yellow() *Color { return c.yellow }
func (c *Config) Blue() *Color   { return c.blue }
func (c *Config) Cyan() *Color   { return c.cyan }
func (c *Config) White() *Color  { return c.white }

// MarshalYAML marshals v to YAML, colorizing tokens when enabled.
func (c *Config) MarshalYAML(v any) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	if !c.IsEnabled() {
		return b, nil
	}
	tokens := lexer.Tokenize(string(b))
	var p printer.Printer
	p.Bool = property(color.FgHiMagenta)
	p.Number = property(color.FgHiMagenta)
	p.MapKey = property(color.FgHiCyan)
	p.Anchor = property(color.FgHiYellow)
	p.Alias = property(color.FgHiYellow)
	p.String = property(color.FgHiGreen)
	p.Comment = property(color.FgHiBlack)
	return []byte(p.PrintTokens(tokens)), nil
}

const escape = "\x1b"

func property(attr color.Attribute) func() *printer.Property {
	return func() *printer.Property {
		return &printer.Property{
			Prefix: fmt.Sprintf("%s[%dm", escape, attr),
			Suffix: fmt.Sprintf("%s[%dm", escape, color.Reset),
		}
	}
}
