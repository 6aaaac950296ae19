package cpp

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-cpg/pkg/graph"
	"github.com/l3aro/go-cpg/pkg/types"
)

func (f *Frontend) handleNumberLiteral(node *sitter.Node) graph.Expression {
	raw := f.text(node)
	value := strings.ToLower(raw)

	if isFloatingLiteral(value) {
		return f.handleFloatingLiteral(node, value)
	}
	return f.handleIntegerLiteral(node, value)
}

// isFloatingLiteral discriminates floating spellings: a decimal point, a
// decimal exponent, a hex float exponent, or an f suffix on a non-hex value.
func isFloatingLiteral(value string) bool {
	hex := strings.HasPrefix(value, "0x")
	if strings.Contains(value, ".") {
		return true
	}
	if hex {
		return strings.Contains(value, "p")
	}
	return strings.ContainsAny(value, "e") || strings.HasSuffix(value, "f")
}

func (f *Frontend) handleFloatingLiteral(node *sitter.Node, value string) graph.Expression {
	single := strings.HasSuffix(value, "f")
	parseable := strings.TrimRight(value, "fl")

	parsed, err := strconv.ParseFloat(parseable, 64)
	if err != nil {
		// e.g. exotic spellings; fall back to the textual form
		f.debugAt(node, "unparseable floating literal %q", value)
		return f.builder.NewLiteral(value, f.registry.Unknown(), f.text(node), f.location(node))
	}

	if single {
		return f.builder.NewLiteral(float32(parsed), f.createFrom("float"), f.text(node), f.location(node))
	}
	return f.builder.NewLiteral(parsed, f.createFrom("double"), f.text(node), f.location(node))
}

// handleIntegerLiteral lowers an integer spelling: the suffix is the longest
// trailing run of u/l characters (at most three), the radix comes from the
// 0b/0x/0 prefix, and the arbitrary-precision value is narrowed to the
// smallest type that holds it.
func (f *Frontend) handleIntegerLiteral(node *sitter.Node, value string) graph.Expression {
	suffix := integerSuffix(value)
	strippedValue := value[:len(value)-len(suffix)]

	radix := 10
	offset := 0
	if strings.HasPrefix(value, "0b") {
		radix = 2
		offset = 2
	} else if strings.HasPrefix(value, "0x") {
		radix = 16
		offset = 2
	} else if strings.HasPrefix(value, "0") && len(strippedValue) > 1 {
		radix = 8
		offset = 1
	}

	strippedValue = strings.ReplaceAll(strippedValue[offset:], "'", "")

	bigValue, ok := new(big.Int).SetString(strippedValue, radix)
	if !ok {
		f.warnAt(node, "unparseable integer literal %q", value)
		return f.builder.NewLiteral(value, f.registry.Unknown(), f.text(node), f.location(node))
	}

	maxInt64 := big.NewInt(math.MaxInt64)

	var numberValue any
	switch {
	case suffix == "ull" || suffix == "ul":
		// unsigned long (long) is always kept as a big integer
		numberValue = bigValue
	case suffix == "ll" || suffix == "l":
		if bigValue.Cmp(maxInt64) > 0 {
			numberValue = bigValue
			f.warnAt(node, "integer literal %s is too large to be represented in a signed type, interpreting it as unsigned", value)
		} else {
			numberValue = bigValue.Int64()
		}
	default:
		if bigValue.Cmp(maxInt64) > 0 {
			numberValue = bigValue
			f.warnAt(node, "integer literal %s is too large to be represented in a signed type, interpreting it as unsigned", value)
		} else if bigValue.Int64() > math.MaxInt32 {
			numberValue = bigValue.Int64()
		} else {
			numberValue = int(bigValue.Int64())
		}
	}

	// the type follows the stored representation
	var t *types.Type
	switch numberValue.(type) {
	case *big.Int:
		if suffix == "ul" {
			t = f.createFrom("unsigned long")
		} else {
			t = f.createFrom("unsigned long long")
		}
	case int64:
		if suffix == "ll" {
			t = f.createFrom("long long")
		} else {
			t = f.createFrom("long")
		}
	default:
		t = f.createFrom("int")
	}

	return f.builder.NewLiteral(numberValue, t, f.text(node), f.location(node))
}

// integerSuffix returns the longest trailing run of u/l characters, at most
// three long.
func integerSuffix(value string) string {
	suffix := ""
	for i := 1; i <= 3 && i <= len(value); i++ {
		candidate := value[len(value)-i:]
		if strings.Trim(candidate, "ul") == "" {
			suffix = candidate
		} else {
			break
		}
	}
	return suffix
}

func (f *Frontend) handleCharLiteral(node *sitter.Node) graph.Expression {
	raw := f.text(node)

	content := strings.TrimSuffix(strings.TrimPrefix(raw, "'"), "'")
	decoded := decodeEscapes(content)

	var value rune
	if runes := []rune(decoded); len(runes) > 0 {
		value = runes[0]
	}

	return f.builder.NewLiteral(value, f.createFrom("char"), raw, f.location(node))
}

func (f *Frontend) handleStringLiteral(node *sitter.Node) graph.Expression {
	raw := f.text(node)

	content := raw
	if strings.HasPrefix(content, "R\"") {
		// raw string: R"delim(content)delim"
		if open := strings.Index(content, "("); open >= 0 {
			if close := strings.LastIndex(content, ")"); close > open {
				content = content[open+1 : close]
			}
		}
	} else {
		content = strings.TrimSuffix(strings.TrimPrefix(content, "\""), "\"")
		content = decodeEscapes(content)
	}

	return f.builder.NewLiteral(content, f.createFrom("const char[]"), raw, f.location(node))
}

func (f *Frontend) handleBooleanLiteral(node *sitter.Node) graph.Expression {
	return f.builder.NewLiteral(node.Type() == "true", f.createFrom("bool"), f.text(node), f.location(node))
}

func (f *Frontend) handleNullLiteral(node *sitter.Node) graph.Expression {
	return f.builder.NewLiteral(nil, f.createFrom("std::nullptr_t"), f.text(node), f.location(node))
}

// decodeEscapes resolves the common escape sequences of char and string
// literals. Unknown escapes keep their literal characters.
func decodeEscapes(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case 'a':
			sb.WriteByte(7)
		case 'b':
			sb.WriteByte(8)
		case 'f':
			sb.WriteByte(12)
		case 'v':
			sb.WriteByte(11)
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		case 'x':
			j := i + 1
			for j < len(s) && isHexDigit(s[j]) {
				j++
			}
			if j > i+1 {
				if v, err := strconv.ParseUint(s[i+1:j], 16, 32); err == nil {
					sb.WriteRune(rune(v))
				}
				i = j - 1
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
