package preview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
	"github.com/conneroisu/a11ytabs/internal/websocket"
)

// page is a parsed source document with its widgets mounted.
type page struct {
	doc     *dom.Document
	widgets []*tabs.Widget
}

// session drives one browser connection. It owns a private copy of the page
// whose node keys match the copy the browser received, so mutations
// journaled here can be replayed there.
type session struct {
	page        *page
	byContainer map[int]*tabs.Widget
	observer    *dom.FuncListener
	pending     []Notification
	send        func(v interface{}) bool
	logger      logging.Logger
}

// newSession mounts a fresh copy of the page and queues an initial patch
// carrying the init notifications.
func newSession(load func(observer dom.Listener) (*page, error), send func(v interface{}) bool, logger logging.Logger) (*session, error) {
	s := &session{
		byContainer: make(map[int]*tabs.Widget),
		send:        send,
		logger:      logger,
	}
	s.observer = &dom.FuncListener{Fn: func(ev *dom.Event) dom.Verdict {
		s.pending = append(s.pending, newNotification(ev))
		return dom.Allowed
	}}

	p, err := load(s.observer)
	if err != nil {
		return nil, err
	}
	s.page = p
	for _, w := range p.widgets {
		s.byContainer[w.Container().Key()] = w
	}

	// The browser's copy already reflects the initial annotation.
	p.doc.TakeMutations()
	if err := s.flush(Patch{}); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// HandleMessage implements websocket.Session.
func (s *session) HandleMessage(ctx context.Context, raw json.RawMessage) error {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errors.NewValidationError(errors.ErrCodeUnknownCommand, "malformed message: "+err.Error())
	}

	switch msg.Type {
	case MessageClick:
		el, err := s.node(msg.Node)
		if err != nil {
			return err
		}
		prevented := !dom.Click(el)
		return s.flush(Patch{DefaultPrevented: &prevented})

	case MessageKeyDown:
		el, err := s.node(msg.Node)
		if err != nil {
			return err
		}
		dom.KeyDown(el, msg.Key)
		return s.flush(Patch{})

	case MessageCommand:
		outcome, err := s.command(msg)
		if err != nil {
			return err
		}
		s.logger.Debug(ctx, "Preview command", "op", msg.Op, "container", msg.Container, "outcome", outcome)
		return s.flush(Patch{Outcome: outcome})

	default:
		return errors.NewValidationError(errors.ErrCodeUnknownCommand, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *session) command(msg Inbound) (string, error) {
	w, ok := s.byContainer[msg.Container]
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeUnknownNode, "no tab widget on that container").
			WithContext("container", msg.Container)
	}

	switch msg.Op {
	case OpGoto:
		return w.Goto(msg.Index, msg.Focus).String(), nil
	case OpNext:
		return w.Next(msg.Focus).String(), nil
	case OpPrev:
		return w.Prev(msg.Focus).String(), nil
	case OpInit:
		if err := w.InitAt(msg.Index); err != nil {
			return "", err
		}
		return "initialized", nil
	case OpDestroy:
		w.Destroy(msg.RemoveAttrs)
		return "destroyed", nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnknownCommand, fmt.Sprintf("unknown op %q", msg.Op))
	}
}

func (s *session) node(key int) (dom.Element, error) {
	el, ok := s.page.doc.NodeByKey(key)
	if !ok || el == nil {
		return nil, errors.NewValidationError(errors.ErrCodeUnknownNode, "no element with that key").
			WithContext("node", key)
	}
	return el, nil
}

// flush completes p with the journal and the queued notifications and
// sends it. A patch that cannot be queued leaves the browser's copy behind
// the session's, so the session cannot continue.
func (s *session) flush(p Patch) error {
	p.Type = MessagePatch
	p.Mutations = s.page.doc.TakeMutations()
	if p.Mutations == nil {
		p.Mutations = []dom.Mutation{}
	}
	p.Notifications = s.pending
	if p.Notifications == nil {
		p.Notifications = []Notification{}
	}
	s.pending = nil

	p.Active = make(map[int]int, len(s.page.widgets))
	for _, w := range s.page.widgets {
		if w.IsInitialized() {
			p.Active[w.Container().Key()] = w.VisibleTab()
		}
	}
	if !s.send(p) {
		return errors.NewInternalError(errors.ErrCodeInternal, "patch could not be queued", nil).
			WithContext("mutations", len(p.Mutations))
	}
	return nil
}

// Close implements websocket.Session.
func (s *session) Close() {
	if root := s.page.doc.Root(); root != nil {
		tabs.Unobserve(root, s.observer)
	}
	for _, w := range s.page.widgets {
		w.Destroy(false)
	}
}

var _ websocket.Session = (*session)(nil)
