package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// Param — одна пара key=value запроса.
type Param struct {
	Key   string
	Value string
}

// Params сохраняет порядок добавления: биржа проверяет подпись
// по строке в документированном порядке полей, сортировать нельзя.
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// символы, которые меняют разбор строки k=v&... на стороне биржи
const reservedChars = "&=%+#?; "

// Check отклоняет пары, способные дописать в подписанную строку чужие поля.
func (p Params) Check() error {
	for _, kv := range p {
		if kv.Key == "" || unsafeParam(kv.Key) || unsafeParam(kv.Value) {
			return &ParamError{Key: kv.Key, Value: kv.Value}
		}
	}
	return nil
}

func unsafeParam(s string) bool {
	return strings.ContainsAny(s, reservedChars) || strings.ContainsFunc(s, unicode.IsControl)
}

// ParamError — параметр запроса с зарезервированными символами. Не ретраится.
type ParamError struct {
	Key   string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("unsafe request parameter %q=%q", e.Key, e.Value)
}

// Encode -> "k1=v1&k2=v2" без url-экранирования (так же строит строку биржа).
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
	}
	return b.String()
}

// Sign — HMAC-SHA256 от Encode() в lowercase hex.
func Sign(params Params, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(params.Encode()))
	return hex.EncodeToString(h.Sum(nil))
}
