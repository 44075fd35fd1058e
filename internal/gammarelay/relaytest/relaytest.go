// Package relaytest provides an in-memory rs.wl-gammarelay service for tests.
package relaytest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/shelepuginivan/sunshift/internal/gammarelay"
)

// ErrUnknownProperty is returned for properties the service does not have.
var ErrUnknownProperty = errors.New("org.freedesktop.DBus.Error.UnknownProperty")

// ErrTooManyCalls is returned when a connection exceeds its call limit.
var ErrTooManyCalls = errors.New("relaytest: too many calls on one connection")

// Call is a single property access recorded by [Service].
type Call struct {
	Conn     int
	Method   string
	Property string
	Value    dbus.Variant
}

// Service is a fake property store reachable through [Service.Dial].
//
// Failures are injected per method and property. Values written with Set are
// stored unchecked, like the real service does not validate ranges.
type Service struct {
	mu         sync.Mutex
	properties map[string]dbus.Variant
	getErrs    map[string]error
	setErrs    map[string]error
	dialErr    error
	maxCalls   int
	conns      []*Conn
	calls      []Call
	onCall     func(Call)
}

// New returns a [Service] holding temperature and brightness.
func New(temperature uint16, brightness float64) *Service {
	return &Service{
		properties: map[string]dbus.Variant{
			gammarelay.PropertyTemperature: dbus.MakeVariant(temperature),
			gammarelay.PropertyBrightness:  dbus.MakeVariant(brightness),
		},
		getErrs: make(map[string]error),
		setErrs: make(map[string]error),
	}
}

// Dial implements [gammarelay.Dialer].
func (s *Service) Dial() (gammarelay.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dialErr != nil {
		return nil, &gammarelay.ConnectionError{Err: s.dialErr}
	}

	conn := &Conn{id: len(s.conns) + 1, service: s}
	s.conns = append(s.conns, conn)

	return conn, nil
}

// FailDial makes subsequent dials fail with err. A nil err restores dialing.
func (s *Service) FailDial(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dialErr = err
}

// FailGet makes reads of property fail with err.
func (s *Service) FailGet(property string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getErrs[property] = err
}

// FailSet makes writes of property fail with err.
func (s *Service) FailSet(property string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setErrs[property] = err
}

// LimitCallsPerConn makes every connection fail after n calls. Zero disables
// the limit.
func (s *Service) LimitCallsPerConn(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxCalls = n
}

// OnCall registers a hook that runs before every call is served. The hook runs
// without the service lock held and may block.
func (s *Service) OnCall(hook func(Call)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onCall = hook
}

// Put stores a raw value, for example one of an unexpected type.
func (s *Service) Put(property string, value dbus.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.properties[property] = value
}

// State returns the stored state. It panics if the stored values do not have
// the types of the real service.
func (s *Service) State() gammarelay.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return gammarelay.State{
		Temperature: s.properties[gammarelay.PropertyTemperature].Value().(uint16),
		Brightness:  s.properties[gammarelay.PropertyBrightness].Value().(float64),
	}
}

// Calls returns every recorded call in order.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)

	return calls
}

// Conns returns every connection dialed so far.
func (s *Service) Conns() []*Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := make([]*Conn, len(s.conns))
	copy(conns, s.conns)

	return conns
}

func (s *Service) serve(conn *Conn, method, property string, value dbus.Variant) (dbus.Variant, error) {
	call := Call{Conn: conn.id, Method: method, Property: property, Value: value}

	s.mu.Lock()
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.closed {
		return dbus.Variant{}, fmt.Errorf("relaytest: connection %d is closed", conn.id)
	}

	conn.calls++
	s.calls = append(s.calls, call)

	if s.maxCalls > 0 && conn.calls > s.maxCalls {
		return dbus.Variant{}, ErrTooManyCalls
	}

	current, ok := s.properties[property]
	if !ok {
		return dbus.Variant{}, ErrUnknownProperty
	}

	switch method {
	case "Get":
		if err := s.getErrs[property]; err != nil {
			return dbus.Variant{}, err
		}
		return current, nil
	case "Set":
		if err := s.setErrs[property]; err != nil {
			return dbus.Variant{}, err
		}
		s.properties[property] = value
		return value, nil
	}

	return dbus.Variant{}, fmt.Errorf("relaytest: unknown method %s", method)
}

// Conn is a connection to [Service].
type Conn struct {
	id      int
	service *Service
	calls   int
	closed  bool
}

// ID returns the sequence number of the connection, starting at 1.
func (c *Conn) ID() int {
	return c.id
}

// CallCount returns the number of calls served on the connection.
func (c *Conn) CallCount() int {
	c.service.mu.Lock()
	defer c.service.mu.Unlock()

	return c.calls
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.service.mu.Lock()
	defer c.service.mu.Unlock()

	return c.closed
}

func (c *Conn) Get(property string) (dbus.Variant, error) {
	return c.service.serve(c, "Get", property, dbus.Variant{})
}

func (c *Conn) Set(property string, value dbus.Variant) error {
	_, err := c.service.serve(c, "Set", property, value)
	return err
}

func (c *Conn) Close() error {
	c.service.mu.Lock()
	defer c.service.mu.Unlock()

	c.closed = true

	return nil
}
