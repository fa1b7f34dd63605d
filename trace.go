package adminform

import (
	"bytes"
	"container/list"
	"fmt"
	"net/http"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLs executed during one http request
type Entry struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Log    string `json:"log"`
}

// Trace collect gorm SQLs of recent requests, shown in debug.json.
// Requests served at the same time may mix their SQLs
type Trace struct {
	m       sync.Mutex
	entries *list.List
	buf     *bytes.Buffer

	MaxCount int
}

// Replace the logger of db, every SQL is recorded
func NewTrace(db *gorm.DB) *Trace {
	t := &Trace{
		buf:      bytes.NewBuffer(make([]byte, 0, 1000)),
		entries:  list.New(),
		MaxCount: 100,
	}

	db.Logger = logger.New(t, logger.Config{
		LogLevel:                  logger.Info,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      false,
	})
	return t
}

// collect once, after the request served
func (t *Trace) CollectOnce(r *http.Request) {
	if t == nil {
		return
	}

	t.m.Lock()
	defer t.m.Unlock()

	if t.buf.Len() == 0 {
		return
	}

	t.entries.PushBack(Entry{Method: r.Method, URL: r.URL.String(), Log: t.buf.String()})
	if t.entries.Len() > t.MaxCount {
		t.entries.Remove(t.entries.Front())
	}
	t.buf.Reset()
}

// logger.Writer
func (t *Trace) Printf(format string, args ...any) {
	t.m.Lock()
	defer t.m.Unlock()

	fmt.Fprintf(t.buf, format+"\n", args...)
}

// latest first
func (t *Trace) Entries() []Entry {
	if t == nil {
		return nil
	}

	t.m.Lock()
	defer t.m.Unlock()

	res := make([]Entry, 0, t.entries.Len())
	for e := t.entries.Back(); e != nil; e = e.Prev() {
		res = append(res, e.Value.(Entry))
	}
	return res
}
