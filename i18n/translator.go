package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional parameters to embed in the message (for example,
// "expected" or "minimum").
type Translator interface {
	Message(code string, data map[string]any) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]any) string {
	if t.lang == "ja" {
		return messageJA(code, data)
	}
	return messageEN(code, data)
}

func messageEN(code string, d map[string]any) string {
	switch code {
	case "required":
		return "Required"
	case "invalid_type":
		return fmt.Sprintf("Expected %v, received %v", param(d, "expected"), param(d, "received"))
	case "too_small":
		if d["type"] == "number" {
			return fmt.Sprintf("Number must be %s %v", atLeast(d, "greater than or equal to", "greater than"), param(d, "minimum"))
		}
		return fmt.Sprintf("%s must contain %s %v %s", subject(d), atLeast(d, "at least", "more than"), param(d, "minimum"), unit(d))
	case "too_big":
		if d["type"] == "number" {
			return fmt.Sprintf("Number must be %s %v", atLeast(d, "less than or equal to", "less than"), param(d, "maximum"))
		}
		return fmt.Sprintf("%s must contain %s %v %s", subject(d), atLeast(d, "at most", "less than"), param(d, "maximum"), unit(d))
	case "invalid_string":
		if v, ok := d["validation"]; ok {
			return fmt.Sprintf("Invalid %v", v)
		}
		return "Invalid string"
	case "invalid_enum_value":
		return fmt.Sprintf("Invalid enum value. Expected %s, received %v", list(d, "options"), quote(d["received"]))
	case "invalid_literal":
		return fmt.Sprintf("Invalid literal value, expected %v", quote(d["expected"]))
	case "invalid_union":
		return "Invalid input"
	case "invalid_union_discriminator":
		return fmt.Sprintf("Invalid discriminator value. Expected %s", list(d, "options"))
	case "invalid_intersection_types":
		return "Intersection results could not be merged"
	case "unrecognized_keys":
		return fmt.Sprintf("Unrecognized key(s) in object: %s", list(d, "keys"))
	case "not_multiple_of":
		return fmt.Sprintf("Number must be a multiple of %v", param(d, "multipleOf"))
	case "not_unique":
		return "Array items must be unique"
	case "custom":
		return "Invalid input"
	case "unknown_error":
		if e, ok := d["error"]; ok {
			return fmt.Sprintf("Unexpected error: %v", e)
		}
		return "Unexpected error"
	case "duplicate_key":
		return withDetail("duplicate key", d)
	case "parse_error":
		return withDetail("parse error", d)
	case "truncated":
		return withDetail("truncated", d)
	}
	return code
}

func messageJA(code string, d map[string]any) string {
	switch code {
	case "required":
		return "必須プロパティが不足しています"
	case "invalid_type":
		return fmt.Sprintf("型が不正です (期待: %v, 実際: %v)", param(d, "expected"), param(d, "received"))
	case "too_small":
		return fmt.Sprintf("小さすぎます (最小: %v)", param(d, "minimum"))
	case "too_big":
		return fmt.Sprintf("大きすぎます (最大: %v)", param(d, "maximum"))
	case "invalid_string":
		return "文字列の形式が不正です"
	case "invalid_enum_value":
		return fmt.Sprintf("列挙値が不正です (候補: %s)", list(d, "options"))
	case "invalid_literal":
		return fmt.Sprintf("リテラル値が不正です (期待: %v)", quote(d["expected"]))
	case "invalid_union":
		return "いずれの候補にも一致しません"
	case "invalid_union_discriminator":
		return fmt.Sprintf("判別子の値が不正です (候補: %s)", list(d, "options"))
	case "invalid_intersection_types":
		return "交差型の結果を結合できません"
	case "unrecognized_keys":
		return fmt.Sprintf("未知のキーです: %s", list(d, "keys"))
	case "not_multiple_of":
		return fmt.Sprintf("%v の倍数である必要があります", param(d, "multipleOf"))
	case "not_unique":
		return "配列の要素が重複しています"
	case "custom":
		return "入力が不正です"
	case "unknown_error":
		return "予期しないエラー"
	case "duplicate_key":
		return "キーが重複しています"
	case "parse_error":
		return "解析エラー"
	case "truncated":
		return "打ち切られました"
	}
	return code
}

func param(d map[string]any, k string) any {
	if v, ok := d[k]; ok {
		return v
	}
	return "?"
}

func subject(d map[string]any) string {
	switch d["type"] {
	case "string":
		return "String"
	case "array":
		return "Array"
	}
	return "Value"
}

func unit(d map[string]any) string {
	switch d["type"] {
	case "string":
		return "character(s)"
	case "array":
		return "element(s)"
	}
	return ""
}

// atLeast picks the inclusive or exclusive wording. Bounds are inclusive
// unless params say otherwise.
func atLeast(d map[string]any, inclusive, exclusive string) string {
	if v, ok := d["inclusive"].(bool); ok && !v {
		return exclusive
	}
	return inclusive
}

func quote(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func list(d map[string]any, k string) string {
	var parts []string
	switch vs := d[k].(type) {
	case []string:
		for _, v := range vs {
			parts = append(parts, quote(v))
		}
	case []any:
		for _, v := range vs {
			parts = append(parts, quote(v))
		}
	default:
		return fmt.Sprint(vs)
	}
	return strings.Join(parts, " | ")
}

func withDetail(msg string, d map[string]any) string {
	if v, ok := d["detail"]; ok && v != "" {
		return fmt.Sprintf("%s: %v", msg, v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]any) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return strings.TrimSpace(tr.Message(code, data))
}

// Codes lists the codes the built-in catalog knows, sorted.
func Codes() []string {
	out := []string{
		"required", "invalid_type", "too_small", "too_big", "invalid_string",
		"invalid_enum_value", "invalid_literal", "invalid_union", "invalid_union_discriminator",
		"invalid_intersection_types", "unrecognized_keys", "not_multiple_of", "not_unique",
		"custom", "unknown_error", "duplicate_key", "parse_error", "truncated",
	}
	sort.Strings(out)
	return out
}
