package memstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dolmen-go/contextio"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/uncomparable"
)

// deletedKey marks a line removing the document with the same _id.
const deletedKey = "$$deleted"

// maxLineSize is the longest line [Store.Load] can read.
const maxLineSize = 16 << 20

// Load reads documents from r, one JSON object per line, and adds them to the
// store. A later line with an existing _id replaces the document, and a line
// holding {"$$deleted": true} removes it. Documents without _id get a new one.
// Lines that cannot be read are skipped, unless they are more than the
// corrupt alert threshold, in which case [ErrCorruptData] is returned and the
// store is left untouched.
func (s *Store) Load(ctx context.Context, r io.Reader) error {
	if err := s.mu.Lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	staged := uncomparable.New[domain.Document](s.hasher, s.comparer)
	for id, doc := range s.docs.Iter() {
		if err := staged.Set(id, doc); err != nil {
			return err
		}
	}

	corruptItems, dataLength := 0, 0
	lines := bufio.NewScanner(contextio.NewReader(ctx, r))
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for lines.Scan() {
		line := lines.Bytes()
		if len(line) == 0 {
			continue
		}
		dataLength++
		if err := s.loadLine(line, staged); err != nil {
			s.logger.WithFields(logrus.Fields{
				"line": dataLength,
				"err":  err,
			}).Debug("skipping corrupt line")
			corruptItems++
		}
	}
	if err := lines.Err(); err != nil {
		return err
	}

	if dataLength > 0 {
		corruptionRate := float64(corruptItems) / float64(dataLength)
		if corruptionRate > s.corruptAlertThreshold {
			return ErrCorruptData{
				CorruptionRate:        corruptionRate,
				CorruptItems:          corruptItems,
				DataLength:            dataLength,
				CorruptAlertThreshold: s.corruptAlertThreshold,
			}
		}
	}

	s.docs = staged
	s.logger.WithFields(logrus.Fields{
		"lines":   dataLength,
		"corrupt": corruptItems,
		"total":   staged.Len(),
	}).Debug("documents loaded")
	return nil
}

var errNotDocument = errors.New("line is not a JSON object")

func (s *Store) loadLine(line []byte, staged *uncomparable.Map[domain.Document]) error {
	v, err := s.parser.Parse(line)
	if err != nil {
		return err
	}
	doc, ok := v.(domain.Document)
	if !ok {
		return errNotDocument
	}

	id, hasID := doc["_id"]
	if deleted, _ := doc[deletedKey].(bool); deleted {
		if !hasID {
			return fmt.Errorf("%s without _id", deletedKey)
		}
		return staged.Delete(id)
	}
	if !hasID {
		if id, err = s.idGenerator.GenerateID(); err != nil {
			return err
		}
		doc["_id"] = id
	}
	return staged.Set(id, doc)
}

// Dump writes every stored document to w as a JSON line, in a form
// [Store.Load] reads back. Dates are written as {"$date": ...}.
func (s *Store) Dump(ctx context.Context, w io.Writer) error {
	if err := s.mu.RLock(ctx); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	bw := bufio.NewWriter(contextio.NewWriter(ctx, w))
	enc := json.NewEncoder(bw)
	for doc := range s.docs.Values() {
		if err := enc.Encode(extended(doc)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// extended replaces dates found in v with their Extended JSON form.
func extended(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]string{"$date": t.UTC().Format(time.RFC3339Nano)}
	case domain.Document:
		res := make(map[string]any, len(t))
		for k, item := range t {
			res[k] = extended(item)
		}
		return res
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = extended(item)
		}
		return res
	default:
		return v
	}
}
