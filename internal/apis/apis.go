package apis

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	ObjectName        = "org.freedesktop.portal.Desktop"
	ObjectPath        = "/org/freedesktop/portal/desktop"
	CallBaseName      = "org.freedesktop.portal"
	PropertiesGetName = "org.freedesktop.DBus.Properties.Get"
)

// Call invokes a portal method on the desktop object and returns its single
// reply value.
func Call(callName string, args ...any) (any, error) {
	call, err := callOnObject(ObjectPath, callName, args...)
	if err != nil {
		return nil, err
	}

	var result any
	err = call.Store(&result)
	return result, err
}

func CallOnObject(path dbus.ObjectPath, callName string, args ...any) error {
	_, err := callOnObject(path, callName, args...)
	return err
}

func callOnObject(path dbus.ObjectPath, callName string, args ...any) (*dbus.Call, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	obj := conn.Object(ObjectName, path)
	call := obj.Call(callName, 0, args...)
	return call, call.Err
}

func GetProperty(interfaceName, property string) (any, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	obj := conn.Object(ObjectName, ObjectPath)
	call := obj.Call(PropertiesGetName, 0, interfaceName, property)
	if call.Err != nil {
		return nil, call.Err
	}

	var value any
	err = call.Store(&value)
	return value, err
}

func Uint32Property(interfaceName, property string) (uint32, error) {
	value, err := GetProperty(interfaceName, property)
	if err != nil {
		return 0, err
	}

	result, ok := value.(uint32)
	if !ok {
		return 0, fmt.Errorf("property %s.%s returned unexpected type %T", interfaceName, property, value)
	}
	return result, nil
}

// UniqueName is this process's bus name, e.g. ":1.42".
func UniqueName() (string, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return "", err
	}
	names := conn.Names()
	if len(names) == 0 {
		return "", errors.New("session bus connection has no unique name")
	}
	return names[0], nil
}

// Subscription receives one signal member on one object path until Close.
type Subscription struct {
	conn   *dbus.Conn
	ch     chan *dbus.Signal
	match  []dbus.MatchOption
	once   sync.Once
	closed error
}

func Subscribe(path dbus.ObjectPath, iface, member string) (*Subscription, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = ObjectPath
	}

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}
	if err := conn.AddMatchSignal(match...); err != nil {
		return nil, err
	}

	ch := make(chan *dbus.Signal, 4)
	conn.Signal(ch)
	return &Subscription{conn: conn, ch: ch, match: match}, nil
}

func (s *Subscription) C() <-chan *dbus.Signal {
	return s.ch
}

func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.conn.RemoveSignal(s.ch)
		s.closed = s.conn.RemoveMatchSignal(s.match...)
	})
	return s.closed
}
