package observability

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const logTimeLayout = "2006-01-02 15:04:05"

type logRow struct {
	at      time.Time
	level   string
	message string
}

// DBHook copies log entries at info level and above into a logs(timestamp, service,
// message) table. The level is kept as a message prefix. Fire never blocks: when the
// buffer is full the entry is dropped and counted.
type DBHook struct {
	db      *sql.DB
	table   string
	service string
	// errLog reports the first failed insert. It must not carry this hook.
	errLog logrus.FieldLogger

	rows    chan logRow
	dropped atomic.Uint64
	failed  atomic.Uint64

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewDBHook(db *sql.DB, table, service string, buffer int) *DBHook {
	if table == "" {
		table = "logs"
	}
	if buffer <= 0 {
		buffer = 256
	}
	h := &DBHook{
		db:      db,
		table:   table,
		service: service,
		errLog:  logrus.New(),
		rows:    make(chan logRow, buffer),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *DBHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (h *DBHook) Fire(entry *logrus.Entry) error {
	msg := entry.Message
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok && err != nil {
		msg = msg + ": " + err.Error()
	}
	row := logRow{at: entry.Time, level: entry.Level.String(), message: msg}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	select {
	case h.rows <- row:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of entries discarded because the buffer was full.
func (h *DBHook) Dropped() uint64 { return h.dropped.Load() }

// Failed returns the number of entries the database refused.
func (h *DBHook) Failed() uint64 { return h.failed.Load() }

// Close stops accepting entries and waits until the buffered ones are written.
func (h *DBHook) Close() error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.rows)
	}
	h.mu.Unlock()
	<-h.done
	return nil
}

func (h *DBHook) run() {
	defer close(h.done)
	query := fmt.Sprintf("INSERT INTO %s (timestamp, service, message) VALUES ($1, $2, $3)", h.table)
	for row := range h.rows {
		msg := "[" + row.level + "] " + row.message
		if _, err := h.db.Exec(query, row.at.Format(logTimeLayout), h.service, msg); err != nil {
			if h.failed.Add(1) == 1 && h.errLog != nil {
				h.errLog.WithError(err).WithField("table", h.table).Error("log_insert_failed")
			}
		}
	}
}
