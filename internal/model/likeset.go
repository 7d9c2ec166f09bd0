package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// LikeSet 点赞用户集合：无序、无重复。
// 存储层为 postgres text[]，其他方言退化为同样格式的文本。
type LikeSet []string

// DecodeLikes normalizes every encoding the likes column has been seen in:
// nil, []string, []any, a JSON array string, or an array literal such as
// {u1,u2} / {"u1","u2"} / [u1,u2]. Anything else decodes to the empty set.
func DecodeLikes(v any) LikeSet {
	switch x := v.(type) {
	case nil:
		return LikeSet{}
	case LikeSet:
		return normalize(x)
	case []string:
		return normalize(x)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return normalize(out)
	case []byte:
		return decodeText(string(x))
	case string:
		return decodeText(x)
	default:
		return LikeSet{}
	}
}

func decodeText(s string) LikeSet {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "NULL" {
		return LikeSet{}
	}
	if strings.HasPrefix(s, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return normalize(arr)
		}
	}
	if len(s) >= 2 && (s[0] == '{' && s[len(s)-1] == '}' || s[0] == '[' && s[len(s)-1] == ']') {
		items, ok := parseArrayLiteral(s[1 : len(s)-1])
		if ok {
			return normalize(items)
		}
	}
	return LikeSet{}
}

// parseArrayLiteral splits the body of a postgres array literal. Quoted
// elements may contain commas and backslash escapes; unquoted NULL is skipped.
func parseArrayLiteral(body string) ([]string, bool) {
	var (
		items   []string
		cur     strings.Builder
		quoted  bool
		inQuote bool
		escaped bool
	)
	flush := func() {
		item := cur.String()
		if !quoted {
			item = strings.TrimSpace(item)
		}
		if quoted || (item != "" && !strings.EqualFold(item, "NULL")) {
			items = append(items, item)
		}
		cur.Reset()
		quoted = false
	}

	if strings.TrimSpace(body) == "" {
		return nil, true
	}
	for _, r := range body {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case r == ',' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote || escaped {
		return nil, false
	}
	flush()
	return items, true
}

func normalize(in []string) LikeSet {
	out := make(LikeSet, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, id := range in {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s LikeSet) Contains(userID string) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Toggle returns the set with userID flipped and whether it is now present.
func (s LikeSet) Toggle(userID string) (LikeSet, bool) {
	if s.Contains(userID) {
		out := make(LikeSet, 0, len(s))
		for _, id := range s {
			if id != userID {
				out = append(out, id)
			}
		}
		return out, false
	}
	out := make(LikeSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, userID), true
}

// Scan implements sql.Scanner.
func (s *LikeSet) Scan(src any) error {
	*s = DecodeLikes(src)
	return nil
}

// Value encodes the set as a postgres array literal.
func (s LikeSet) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range normalize(s) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String(), nil
}

// GormDBDataType picks a native array column where the dialect has one.
func (LikeSet) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (s LikeSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("likes: %w", err)
	}
	*s = DecodeLikes(raw)
	return nil
}
