package template

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Func is a pure function callable from a "func" template token.
type Func func(args []any) (any, error)

// Registry maps function names to their implementations. Functions are
// registered explicitly at initialization; there is no dynamic symbol lookup.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register adds f under name. Duplicate names are rejected.
func (r *Registry) Register(name string, f Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[name]; ok {
		return errors.Errorf("template function %q already registered", name)
	}
	r.funcs[name] = f
	return nil
}

func (r *Registry) lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

var defaultRegistry = NewRegistry()

// RegisterFunc adds f to the default registry.
func RegisterFunc(name string, f Func) error {
	return defaultRegistry.Register(name, f)
}

const randomChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func init() {
	builtins := map[string]Func{
		"uuid": func([]any) (any, error) {
			return uuid.NewString(), nil
		},
		"timestamp": func([]any) (any, error) {
			return time.Now().Unix(), nil
		},
		"isoDate": func([]any) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
		"randomString": func(args []any) (any, error) {
			n := 16
			if len(args) > 0 {
				i, err := toInt(args[0])
				if err != nil {
					return nil, errors.Wrap(err, "randomString")
				}
				n = i
			}
			b := make([]byte, n)
			for i := range b {
				b[i] = randomChars[rand.Intn(len(randomChars))]
			}
			return string(b), nil
		},
		"randomInt": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, errors.New("randomInt requires min and max")
			}
			lo, err := toInt(args[0])
			if err != nil {
				return nil, errors.Wrap(err, "randomInt")
			}
			hi, err := toInt(args[1])
			if err != nil {
				return nil, errors.Wrap(err, "randomInt")
			}
			if hi < lo {
				return nil, errors.Errorf("randomInt: max %d < min %d", hi, lo)
			}
			return int64(lo + rand.Intn(hi-lo+1)), nil
		},
		"base64Encode": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("base64Encode requires one argument")
			}
			return base64.StdEncoding.EncodeToString([]byte(toString(args[0]))), nil
		},
		"base64Decode": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("base64Decode requires one argument")
			}
			b, err := base64.StdEncoding.DecodeString(toString(args[0]))
			if err != nil {
				return nil, errors.Wrap(err, "base64Decode")
			}
			return string(b), nil
		},
		"upper": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("upper requires one argument")
			}
			return strings.ToUpper(toString(args[0])), nil
		},
		"lower": func(args []any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("lower requires one argument")
			}
			return strings.ToLower(toString(args[0])), nil
		},
		"concat": func(args []any) (any, error) {
			var b strings.Builder
			for _, a := range args {
				b.WriteString(toString(a))
			}
			return b.String(), nil
		},
	}
	for name, f := range builtins {
		if err := defaultRegistry.Register(name, f); err != nil {
			panic(err)
		}
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, errors.Errorf("%q is not an integer", n)
		}
		return i, nil
	default:
		return 0, errors.Errorf("%T is not an integer", v)
	}
}

// Stringify renders a resolved value the way token substitution does:
// strings pass through, numbers keep their literal form, and composite
// values serialize to JSON.
func Stringify(v any) string {
	return toString(v)
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case nil:
		return ""
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}
