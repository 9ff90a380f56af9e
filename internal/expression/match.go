package expression

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// ErrNotBoolean is returned when an expression evaluates to something other
// than true or false.
var ErrNotBoolean = errors.New("expression result is not boolean")

var (
	andPattern        = regexp.MustCompile(`\band\b`)
	orPattern         = regexp.MustCompile(`\bor\b`)
	notPattern        = regexp.MustCompile(`\bnot\b`)
	floatLiteralMatch = regexp.MustCompile(`(FloatValue\s*(?:<=?|>=?|==|!=)\s*)([\d.]+)`)
)

// Evaluator compiles marketplace expressions into CEL programs that run
// against inventory items.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator declares the item attributes an expression may reference.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("FloatValue", cel.DoubleType),
		cel.Variable("DefIndex", cel.IntType),
		cel.Variable("PaintIndex", cel.IntType),
		cel.Variable("PaintSeed", cel.IntType),
		cel.Variable("Rarity", cel.IntType),
		cel.Variable("StatTrak", cel.BoolType),
		cel.Variable("Souvenir", cel.BoolType),
		cel.Variable("Item", cel.StringType),
		cel.Variable("Stickers", cel.ListType(cel.MapType(cel.StringType, cel.IntType))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Matcher is a compiled expression. It is safe for concurrent use.
type Matcher struct {
	program cel.Program
	source  string
}

// Source returns the expression the matcher was compiled from.
func (m *Matcher) Source() string {
	return m.source
}

// Compile translates expr to CEL and compiles it.
func (e *Evaluator) Compile(expr string) (*Matcher, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformedExpression)
	}

	translated, err := translate(expr)
	if err != nil {
		return nil, err
	}

	ast, issues := e.env.Compile(translated)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: CEL compile error: %w", ErrMalformedExpression, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}

	return &Matcher{program: prg, source: expr}, nil
}

// Matches reports whether item satisfies the expression.
func (m *Matcher) Matches(item model.InventoryItem) (bool, error) {
	out, _, err := m.program.Eval(activation(item))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %T", ErrNotBoolean, out.Value())
	}
	return result, nil
}

func activation(item model.InventoryItem) map[string]any {
	stickers := make([]any, 0, len(item.Stickers))
	for _, s := range item.Stickers {
		stickers = append(stickers, map[string]any{
			"id":   int64(s.StickerID),
			"slot": int64(s.Slot),
		})
	}

	return map[string]any{
		"FloatValue": item.FloatValue,
		"DefIndex":   int64(item.DefIndex),
		"PaintIndex": int64(item.PaintIndex),
		"PaintSeed":  int64(item.PaintSeed),
		"Rarity":     int64(item.Rarity),
		"StatTrak":   item.IsStatTrak,
		"Souvenir":   item.IsSouvenir,
		"Item":       item.MarketHashName,
		"Stickers":   stickers,
	}
}

// translate rewrites the marketplace grammar into CEL. String literals are
// copied untouched; everything between them is rewritten.
func translate(expr string) (string, error) {
	var b strings.Builder
	b.Grow(len(expr) * 2)

	start := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] != '"' {
			continue
		}

		end := closingQuote(expr, i+1)
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated string literal", ErrMalformedExpression)
		}

		code, err := translateCode(expr[start:i])
		if err != nil {
			return "", err
		}
		b.WriteString(code)
		b.WriteString(expr[i : end+1])

		i = end
		start = end + 1
	}

	code, err := translateCode(expr[start:])
	if err != nil {
		return "", err
	}
	b.WriteString(code)

	return b.String(), nil
}

func closingQuote(s string, from int) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}

func translateCode(code string) (string, error) {
	code = andPattern.ReplaceAllString(code, "&&")
	code = orPattern.ReplaceAllString(code, "||")
	code = notPattern.ReplaceAllString(code, "!")

	var stickerErr error
	code = stickerPattern.ReplaceAllStringFunc(code, func(call string) string {
		m := stickerPattern.FindStringSubmatch(call)
		id, err := parseInt(m[1])
		if err != nil {
			stickerErr = err
			return call
		}
		slot, err := parseInt(m[2])
		if err != nil {
			stickerErr = err
			return call
		}
		qty, err := parseInt(m[3])
		if err != nil {
			stickerErr = err
			return call
		}
		return stickerClause(id, slot, qty)
	})
	if stickerErr != nil {
		return "", stickerErr
	}

	var floatErr error
	code = floatLiteralMatch.ReplaceAllStringFunc(code, func(cmp string) string {
		m := floatLiteralMatch.FindStringSubmatch(cmp)
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			floatErr = fmt.Errorf("%w: float literal %q", ErrMalformedExpression, m[2])
			return cmp
		}
		return m[1] + doubleLiteral(v)
	})
	if floatErr != nil {
		return "", floatErr
	}

	return code, nil
}

// stickerClause counts applied stickers with the given id, optionally pinned
// to one slot. Slot -1 matches any slot.
func stickerClause(id, slot, qty int) string {
	cond := "s.id == " + strconv.Itoa(id)
	if slot != -1 {
		cond += " && s.slot == " + strconv.Itoa(slot)
	}
	return fmt.Sprintf("(Stickers.filter(s, %s).size() >= %d)", cond, qty)
}

// doubleLiteral prints v so CEL always reads it as a double.
func doubleLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
