package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// bindingName is the page-global function the hook reports through.
const bindingName = "__relayBridge"

// hookJS runs before the page's own scripts. It returns at once in the top
// frame, so only the game iframe is hooked and the room's chat socket is
// never reported. Inside the iframe it wraps the socket factory the game
// publishes as window.io so that every socket it builds is reported once,
// and every packet the socket dispatches is reported before the page's own
// handler runs. Reporting never throws into the page.
const hookJS = `(() => {
  if (window.self === window.top) return;
  if (window.__relayHook) return;
  const sockets = {};
  let seq = 0;
  const report = (msg) => {
    try {
      const fn = window["` + bindingName + `"];
      if (typeof fn === "function") fn(JSON.stringify(msg));
    } catch (e) {}
  };
  const tap = (socket) => {
    if (!socket || socket.__relayTapped) return socket;
    const id = String(++seq);
    socket.__relayTapped = true;
    sockets[id] = socket;
    report({ kind: "channel", channel: id });
    const onevent = socket.onevent;
    socket.onevent = function (packet) {
      try {
        const args = (packet && packet.data) || [];
        report({ kind: "event", channel: id, name: String(args[0]), args: args.slice(1) });
      } catch (e) {}
      if (onevent) return onevent.call(this, packet);
    };
    return socket;
  };
  const wrap = (factory) => {
    if (typeof factory !== "function") return factory;
    const wrapped = function (...args) { return tap(factory.apply(this, args)); };
    Object.assign(wrapped, factory);
    return wrapped;
  };
  let current = wrap(window.io);
  Object.defineProperty(window, "io", {
    get() { return current; },
    set(v) { current = wrap(v); },
    configurable: true,
  });
  window.__relayHook = {
    emit(id, name, args) {
      const socket = sockets[id];
      if (!socket) return false;
      socket.emit(name, ...args);
      return true;
    },
  };
})();`

// Binding message kinds.
const (
	kindChannel = "channel"
	kindEvent   = "event"
)

// bindingMessage is one report from the page hook.
type bindingMessage struct {
	Kind    string `json:"kind"`
	Channel string `json:"channel"`
	Name    string `json:"name,omitempty"`
	Args    []any  `json:"args,omitempty"`
}

// parseBinding decodes a hook report. Numbers stay json.Number so they are
// re-encoded exactly as the game sent them.
func parseBinding(payload string) (bindingMessage, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var msg bindingMessage
	if err := dec.Decode(&msg); err != nil {
		return bindingMessage{}, fmt.Errorf("decode hook report: %w", err)
	}
	if msg.Channel == "" {
		return bindingMessage{}, fmt.Errorf("hook report without channel")
	}
	switch msg.Kind {
	case kindChannel:
	case kindEvent:
		if msg.Name == "" {
			return bindingMessage{}, fmt.Errorf("hook event without name")
		}
	default:
		return bindingMessage{}, fmt.Errorf("unknown hook report kind %q", msg.Kind)
	}
	return msg, nil
}

// emitExpression builds the script that invokes name on the page socket id.
func emitExpression(id, name string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteString("window.__relayHook.emit(")
	for i, v := range []any{id, name, args} {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("encode emit argument: %w", err)
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
	}
	buf.WriteByte(')')
	return buf.String(), nil
}
