package chat

import (
	"sync"

	"github.com/ejamakovic/chat-app-FE/internal/models"
)

const DefaultMaxRecords = 500

type Seq int64

type Record struct {
	Seq     Seq
	Message models.Message
}

// Transcript is the bounded list of messages currently displayed for one
// thread. Older records are overwritten once MaxRecords is reached.
type Transcript struct {
	Records    []Record
	FirstSeq   Seq
	LastSeq    Seq
	LastIndex  int
	MaxRecords int

	RecordCallback func(record Record)

	mux sync.RWMutex
}

type Config struct {
	MaxRecords     int
	RecordCallback func(record Record)
}

func New(config Config) *Transcript {
	if config.MaxRecords <= 0 {
		config.MaxRecords = DefaultMaxRecords
	}
	return &Transcript{
		MaxRecords:     config.MaxRecords,
		LastIndex:      -1,
		FirstSeq:       -1,
		LastSeq:        -1,
		RecordCallback: config.RecordCallback,
	}
}

// AddRecord appends a message:
// - Adding it into Records ring buffer
// - Updating FirstSeq and LastSeq
// - Notifying RecordCallback
func (t *Transcript) AddRecord(msg models.Message) Record {
	t.mux.Lock()
	record := t.addLocked(msg)
	callback := t.RecordCallback
	t.mux.Unlock()

	if callback != nil {
		callback(record)
	}
	return record
}

func (t *Transcript) addLocked(msg models.Message) Record {
	t.LastSeq++
	record := Record{Seq: t.LastSeq, Message: msg}

	switch {
	case len(t.Records) < t.MaxRecords:
		if t.FirstSeq == -1 {
			t.FirstSeq = t.LastSeq
		}
		t.Records = append(t.Records, record)
		t.LastIndex++
	default:
		t.FirstSeq++
		i := (t.LastIndex + 1) % t.MaxRecords
		t.Records[i] = record
		t.LastIndex = i
	}
	return record
}

// Reset replaces the transcript with a fetched history. Only the newest
// MaxRecords messages are kept and RecordCallback is not called.
func (t *Transcript) Reset(msgs []models.Message) {
	t.mux.Lock()
	defer t.mux.Unlock()

	t.Records = nil
	t.FirstSeq = -1
	t.LastSeq = -1
	t.LastIndex = -1

	if len(msgs) > t.MaxRecords {
		msgs = msgs[len(msgs)-t.MaxRecords:]
	}
	for _, m := range msgs {
		t.addLocked(m)
	}
}

func (t *Transcript) Len() int {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return len(t.Records)
}

func (t *Transcript) GetLastRecords(count int) ([]Record, error) {
	t.mux.RLock()
	defer t.mux.RUnlock()

	if t.LastSeq == -1 || count <= 0 {
		return []Record{}, nil
	}

	total := int(t.LastSeq - t.FirstSeq + 1)
	if count > total {
		count = total
	}

	// We want [LastSeq - count + 1, LastSeq + 1)
	from := t.LastSeq - Seq(count) + 1
	return t.copyLocked(from, count), nil
}

// Messages returns every kept message, oldest first.
func (t *Transcript) Messages() []models.Message {
	records, _ := t.GetLastRecords(t.MaxRecords)
	msgs := make([]models.Message, len(records))
	for i, r := range records {
		msgs[i] = r.Message
	}
	return msgs
}

func (t *Transcript) copyLocked(from Seq, count int) []Record {
	result := make([]Record, count)

	// Head index (oldest record)
	head := 0
	if len(t.Records) == t.MaxRecords {
		head = (t.LastIndex + 1) % t.MaxRecords
	}

	offset := int(from - t.FirstSeq)
	startIdx := (head + offset) % len(t.Records)

	if startIdx+count <= len(t.Records) {
		copy(result, t.Records[startIdx:startIdx+count])
	} else {
		n1 := len(t.Records) - startIdx
		copy(result, t.Records[startIdx:])
		copy(result[n1:], t.Records[:count-n1])
	}
	return result
}
