package request

import (
	"context"
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"

	"go2tv.app/xcap/internal/apis"
)

var ErrUnexpectedResponse = errors.New("unexpected response from dbus")

const (
	InterfaceName  = "org.freedesktop.portal.Request"
	ResponseMember = "Response"
	closeCallName  = InterfaceName + ".Close"
	responseName   = InterfaceName + "." + ResponseMember
)

type ResponseStatus = uint32

const (
	Success   ResponseStatus = 0
	Cancelled ResponseStatus = 1
	Ended     ResponseStatus = 2
)

func Close(path dbus.ObjectPath) error {
	return apis.CallOnObject(path, closeCallName)
}

// Path predicts the request object the portal creates for handleToken, so the
// Response signal can be subscribed to before the method call is made.
func Path(uniqueName, handleToken string) dbus.ObjectPath {
	sender := strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
	return dbus.ObjectPath(apis.ObjectPath + "/request/" + sender + "/" + handleToken)
}

// Await blocks until the Response signal for path arrives. Cancelling ctx
// closes the pending request.
func Await(ctx context.Context, signals <-chan *dbus.Signal, path dbus.ObjectPath) (ResponseStatus, map[string]dbus.Variant, error) {
	for {
		select {
		case <-ctx.Done():
			_ = Close(path)
			return Ended, nil, ctx.Err()
		case signal, ok := <-signals:
			if !ok {
				return Ended, nil, ErrUnexpectedResponse
			}
			if signal.Path != path || signal.Name != responseName {
				continue
			}
			return ParseResponse(signal)
		}
	}
}

func ParseResponse(signal *dbus.Signal) (ResponseStatus, map[string]dbus.Variant, error) {
	if signal == nil || len(signal.Body) != 2 {
		return Ended, nil, ErrUnexpectedResponse
	}

	status, ok := signal.Body[0].(ResponseStatus)
	if !ok {
		return Ended, nil, ErrUnexpectedResponse
	}
	results, ok := signal.Body[1].(map[string]dbus.Variant)
	if !ok {
		return Ended, nil, ErrUnexpectedResponse
	}
	return status, results, nil
}
