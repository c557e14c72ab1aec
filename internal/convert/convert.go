package convert

import (
	"reflect"

	"github.com/godbus/dbus/v5"
)

var (
	boolSignature   = dbus.SignatureOfType(reflect.TypeOf(false))
	stringSignature = dbus.SignatureOfType(reflect.TypeOf(""))
)

// Vardict is the a{sv} options argument taken by portal methods.
type Vardict map[string]dbus.Variant

func (v Vardict) SetBool(key string, value bool) Vardict {
	v[key] = dbus.MakeVariantWithSignature(value, boolSignature)
	return v
}

func (v Vardict) SetString(key, value string) Vardict {
	if value != "" {
		v[key] = dbus.MakeVariantWithSignature(value, stringSignature)
	}
	return v
}

// String reads a string result, reporting false when the key is missing or
// holds another type.
func String(results map[string]dbus.Variant, key string) (string, bool) {
	v, ok := results[key]
	if !ok {
		return "", false
	}
	s, ok := v.Value().(string)
	return s, ok
}
