package adminform

import (
	"encoding/gob"
	"net/http"

	"github.com/samber/lo"
)

// Flashed message, category affect bootstrap alert: info, success, danger
// https://getbootstrap.com/docs/4.0/components/alerts/
type Message struct {
	Category string
	Data     string
}

func init() {
	gob.Register(Message{})
}

const flashedKey = "_flashes"

// `Flash` Mock flask.flash
// `get_flashed_messages` as `GetFlashedMessages(r)`
func Flash(r *http.Request, data string, category ...string) {
	s := CurrentSession(r)
	if s == nil {
		return
	}
	s.AddFlash(Message{Category: firstOr(category, "info"), Data: data}, flashedKey)
}

// `category` is category filter, not-matched messages are kept for later
func GetFlashedMessages(r *http.Request, category ...string) []Message {
	s := CurrentSession(r)
	if s == nil {
		return nil
	}

	ms := lo.FilterMap(s.Flashes(flashedKey), func(a any, _ int) (Message, bool) {
		m, ok := a.(Message)
		return m, ok
	})
	if len(category) == 0 {
		return ms
	}

	matched, others := lo.FilterReject(ms, func(m Message, _ int) bool {
		return m.Category == category[0]
	})
	for _, m := range others {
		s.AddFlash(m, flashedKey)
	}
	return matched
}
