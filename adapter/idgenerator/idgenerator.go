// Package idgenerator contains the default [domain.IDGenerator] implementation.
// Identifiers have the shape of a MongoDB ObjectID: a big endian timestamp in
// seconds followed by random bytes, hex encoded.
package idgenerator

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader io.Reader
	now    func() time.Time
}

// NewIDGenerator implements [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{
		reader: rand.Reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator].
func (i *IDGenerator) GenerateID() (domain.ObjectID, error) {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(i.now().Unix()))
	if _, err := io.ReadFull(i.reader, buf[4:]); err != nil {
		return "", err
	}
	return domain.ObjectID(hex.EncodeToString(buf[:])), nil
}
