// Package markup renders result values as markup documents.
//
// Rendering is total: every Go value produces well-formed output. Structs
// render their exported fields in declaration order (named by the json tag
// when present), maps render in sorted key order, lists wrap one <item> per
// element, nil renders as a self-closing element and scalars become escaped
// text.
package markup

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Document element names.
const (
	RootElement  = "response"
	ErrorElement = "error"
	ItemElement  = "item"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five reserved markup characters.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Render returns the success document for v.
func Render(v any) string {
	var sb strings.Builder
	writeValue(&sb, RootElement, reflect.ValueOf(v))
	return sb.String()
}

// RenderError returns the error document carrying msg.
func RenderError(msg string) string {
	return "<" + ErrorElement + ">" + Escape(msg) + "</" + ErrorElement + ">"
}

// SanitizeName maps a field name onto a valid element name. Characters
// outside [A-Za-z0-9_-] become underscores; names that are empty or start
// with a digit or hyphen gain a leading underscore.
func SanitizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name) + 1)
	if name == "" || isDigit(name[0]) || name[0] == '-' {
		sb.WriteByte('_')
	}
	for _, r := range name {
		if r < 0x80 && (isLetter(byte(r)) || isDigit(byte(r)) || r == '_' || r == '-') {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('_')
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, name string, v reflect.Value) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			break
		}
		v = v.Elem()
	}

	if !v.IsValid() || ((v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil()) {
		sb.WriteString("<" + name + "/>")
		return
	}

	switch v.Kind() {
	case reflect.Struct:
		open(sb, name)
		writeStruct(sb, v)
		closeTag(sb, name)
	case reflect.Map:
		open(sb, name)
		writeMap(sb, v)
		closeTag(sb, name)
	case reflect.Slice, reflect.Array:
		open(sb, name)
		for i := 0; i < v.Len(); i++ {
			writeValue(sb, ItemElement, v.Index(i))
		}
		closeTag(sb, name)
	default:
		open(sb, name)
		sb.WriteString(Escape(scalar(v)))
		closeTag(sb, name)
	}
}

func writeStruct(sb *strings.Builder, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		writeValue(sb, SanitizeName(name), v.Field(i))
	}
}

func writeMap(sb *strings.Builder, v reflect.Value) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: fmt.Sprint(iter.Key().Interface()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	for _, e := range entries {
		writeValue(sb, SanitizeName(e.key), e.val)
	}
}

func scalar(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	}
	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return v.String()
}

func open(sb *strings.Builder, name string) {
	sb.WriteString("<" + name + ">")
}

func closeTag(sb *strings.Builder, name string) {
	sb.WriteString("</" + name + ">")
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
